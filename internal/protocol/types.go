package protocol

import (
	"fmt"
	"strings"
)

// DefaultCommandPort is the controller's command service port.
const DefaultCommandPort = 1337

// DefaultVersion is the controller protocol version assumed when the caller
// does not pick one.
const DefaultVersion uint16 = 5

// Command tags each frame with its request/response kind. Values follow the
// controller's command numbering; only the two commands used here are
// modelled.
type Command uint32

const (
	CommandConnect          Command = 0
	CommandLoadModelLibrary Command = 13
)

func (c Command) String() string {
	switch c {
	case CommandConnect:
		return "connect"
	case CommandLoadModelLibrary:
		return "load_model_library"
	default:
		return fmt.Sprintf("command(%d)", uint32(c))
	}
}

func (c Command) Valid() bool {
	return c == CommandConnect || c == CommandLoadModelLibrary
}

// Architecture is the processor architecture an artifact is built for.
type Architecture uint8

const (
	ArchitectureX64   Architecture = 0
	ArchitectureX86   Architecture = 1
	ArchitectureARM64 Architecture = 2
	ArchitectureARM   Architecture = 3
)

var architectureNames = [...]string{
	ArchitectureX64:   "x64",
	ArchitectureX86:   "x86",
	ArchitectureARM64: "arm64",
	ArchitectureARM:   "arm",
}

func (a Architecture) String() string {
	if !a.Valid() {
		return fmt.Sprintf("architecture(%d)", uint8(a))
	}
	return architectureNames[a]
}

func (a Architecture) Valid() bool {
	return int(a) < len(architectureNames)
}

// ParseArchitecture accepts the names printed by String.
func ParseArchitecture(raw string) (Architecture, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for i, n := range architectureNames {
		if n == name {
			return Architecture(i), nil
		}
	}
	return 0, fmt.Errorf("%w: architecture %q", ErrInvalidEnum, raw)
}

// OperatingSystem is the operating system an artifact is built for.
type OperatingSystem uint8

const (
	OperatingSystemLinux   OperatingSystem = 0
	OperatingSystemWindows OperatingSystem = 1
)

func (o OperatingSystem) String() string {
	switch o {
	case OperatingSystemLinux:
		return "linux"
	case OperatingSystemWindows:
		return "windows"
	default:
		return fmt.Sprintf("operating_system(%d)", uint8(o))
	}
}

func (o OperatingSystem) Valid() bool {
	return o == OperatingSystemLinux || o == OperatingSystemWindows
}

// ParseOperatingSystem accepts "linux", "windows" and the short "win".
func ParseOperatingSystem(raw string) (OperatingSystem, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "linux":
		return OperatingSystemLinux, nil
	case "windows", "win":
		return OperatingSystemWindows, nil
	default:
		return 0, fmt.Errorf("%w: operating system %q", ErrInvalidEnum, raw)
	}
}

// ConnectStatus is the controller's verdict on a Connect request.
type ConnectStatus uint8

const (
	ConnectStatusSuccess                    ConnectStatus = 0
	ConnectStatusIncompatibleLibraryVersion ConnectStatus = 1
)

func (s ConnectStatus) String() string {
	switch s {
	case ConnectStatusSuccess:
		return "success"
	case ConnectStatusIncompatibleLibraryVersion:
		return "incompatible_library_version"
	default:
		return fmt.Sprintf("connect_status(%d)", uint8(s))
	}
}

func (s ConnectStatus) Valid() bool {
	return s <= ConnectStatusIncompatibleLibraryVersion
}

// LoadStatus is the controller's verdict on a LoadModelLibrary request.
type LoadStatus uint8

const (
	LoadStatusSuccess LoadStatus = 0
	LoadStatusError   LoadStatus = 1
)

func (s LoadStatus) String() string {
	switch s {
	case LoadStatusSuccess:
		return "success"
	case LoadStatusError:
		return "error"
	default:
		return fmt.Sprintf("load_status(%d)", uint8(s))
	}
}

func (s LoadStatus) Valid() bool {
	return s <= LoadStatusError
}
