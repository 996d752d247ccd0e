package protocol

import "encoding/binary"

// ConnectResponse is the controller's answer to Connect.
type ConnectResponse struct {
	Version uint16
	Status  ConnectStatus
}

// LoadModelLibraryRequest selects the artifact flavour to download.
type LoadModelLibraryRequest struct {
	Architecture    Architecture
	OperatingSystem OperatingSystem
}

// LoadModelLibraryResponse carries the status and, on success, the raw
// artifact bytes.
type LoadModelLibraryResponse struct {
	Status  LoadStatus
	Library []byte
}

// DecodeConnectRequest parses a Connect payload.
func DecodeConnectRequest(payload []byte) (uint16, error) {
	if len(payload) < connectRequestLen {
		return 0, ErrTruncated
	}
	if len(payload) > connectRequestLen {
		return 0, ErrInvalidLength
	}
	return binary.LittleEndian.Uint16(payload), nil
}

// DecodeConnectResponse parses a Connect reply.
func DecodeConnectResponse(payload []byte) (ConnectResponse, error) {
	if len(payload) < connectResponseLen {
		return ConnectResponse{}, ErrTruncated
	}
	if len(payload) > connectResponseLen {
		return ConnectResponse{}, ErrInvalidLength
	}
	resp := ConnectResponse{
		Version: binary.LittleEndian.Uint16(payload[0:2]),
		Status:  ConnectStatus(payload[2]),
	}
	if !resp.Status.Valid() {
		return ConnectResponse{}, ErrInvalidEnum
	}
	return resp, nil
}

// DecodeLoadModelLibraryRequest parses a LoadModelLibrary payload.
func DecodeLoadModelLibraryRequest(payload []byte) (LoadModelLibraryRequest, error) {
	if len(payload) < loadRequestLen {
		return LoadModelLibraryRequest{}, ErrTruncated
	}
	if len(payload) > loadRequestLen {
		return LoadModelLibraryRequest{}, ErrInvalidLength
	}
	req := LoadModelLibraryRequest{
		Architecture:    Architecture(payload[0]),
		OperatingSystem: OperatingSystem(payload[1]),
	}
	if !req.Architecture.Valid() || !req.OperatingSystem.Valid() {
		return LoadModelLibraryRequest{}, ErrInvalidEnum
	}
	return req, nil
}

// DecodeLoadModelLibraryResponse parses a LoadModelLibrary reply. The
// returned Library aliases payload.
func DecodeLoadModelLibraryResponse(payload []byte) (LoadModelLibraryResponse, error) {
	if len(payload) < loadResponseMinLen {
		return LoadModelLibraryResponse{}, ErrTruncated
	}
	resp := LoadModelLibraryResponse{
		Status:  LoadStatus(payload[0]),
		Library: payload[loadResponseMinLen:],
	}
	if !resp.Status.Valid() {
		return LoadModelLibraryResponse{}, ErrInvalidEnum
	}
	return resp, nil
}
