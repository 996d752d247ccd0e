package protocol

import "encoding/binary"

const (
	connectRequestLen  = 2
	connectResponseLen = 3
	loadRequestLen     = 2
	loadResponseMinLen = 1
)

// EncodeConnectRequest builds the Connect payload: {version u16}.
func EncodeConnectRequest(version uint16) []byte {
	buf := make([]byte, connectRequestLen)
	binary.LittleEndian.PutUint16(buf, version)
	return buf
}

// EncodeConnectResponse builds the Connect reply: {version u16, status u8}.
func EncodeConnectResponse(resp ConnectResponse) []byte {
	buf := make([]byte, connectResponseLen)
	binary.LittleEndian.PutUint16(buf[0:2], resp.Version)
	buf[2] = byte(resp.Status)
	return buf
}

// EncodeLoadModelLibraryRequest builds the LoadModelLibrary payload:
// {architecture u8, operating_system u8}.
func EncodeLoadModelLibraryRequest(req LoadModelLibraryRequest) ([]byte, error) {
	if !req.Architecture.Valid() || !req.OperatingSystem.Valid() {
		return nil, ErrInvalidEnum
	}
	return []byte{byte(req.Architecture), byte(req.OperatingSystem)}, nil
}

// EncodeLoadModelLibraryResponse builds the LoadModelLibrary reply:
// {status u8} followed by the artifact bytes.
func EncodeLoadModelLibraryResponse(resp LoadModelLibraryResponse) []byte {
	buf := make([]byte, 0, loadResponseMinLen+len(resp.Library))
	buf = append(buf, byte(resp.Status))
	return append(buf, resp.Library...)
}
