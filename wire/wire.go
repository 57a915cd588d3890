// Package wire defines the IPC message schemas carried inside a
// kernel.Message's 24-byte raw payload (spec §6 "Message wire format").
// Type 1 (notifications) is defined on kernel.Message itself since the
// scheduler synthesises those without going through a client request;
// everything else — the allocator's request/response pair and the
// console task's write request — lives here.
package wire

import "encoding/binary"

// Message types. Notifications (1) are defined in package kernel; the
// reference overloads DeallocRequest under AllocResponse's type (both
// 3), which spec §9 flags as worth splitting for a clean implementation —
// this package takes that split, giving request and response distinct
// types in both directions.
const (
	TypeAllocRequest    = 2
	TypeAllocResponse   = 3
	TypeDeallocRequest  = 4
	TypeDeallocResponse = 5
	TypeConsoleOut      = 6
)

// AllocRequest is the allocator's incoming request: size and alignment in
// bytes.
type AllocRequest struct {
	Size  uint32
	Align uint32
}

// Encode writes r into a 24-byte raw payload, little-endian.
func (r AllocRequest) Encode() [24]byte {
	var raw [24]byte
	binary.LittleEndian.PutUint32(raw[0:4], r.Size)
	binary.LittleEndian.PutUint32(raw[4:8], r.Align)
	return raw
}

// DecodeAllocRequest reads an AllocRequest out of a raw payload.
func DecodeAllocRequest(raw [24]byte) AllocRequest {
	return AllocRequest{
		Size:  binary.LittleEndian.Uint32(raw[0:4]),
		Align: binary.LittleEndian.Uint32(raw[4:8]),
	}
}

// AllocResponse carries the allocated pointer (a word index into the
// allocator's arena in this hosted model) and the error kind, 0 for Ok.
type AllocResponse struct {
	Ptr  uint32
	Kind uint32
}

func (r AllocResponse) Encode() [24]byte {
	var raw [24]byte
	binary.LittleEndian.PutUint32(raw[0:4], r.Ptr)
	binary.LittleEndian.PutUint32(raw[4:8], r.Kind)
	return raw
}

func DecodeAllocResponse(raw [24]byte) AllocResponse {
	return AllocResponse{
		Ptr:  binary.LittleEndian.Uint32(raw[0:4]),
		Kind: binary.LittleEndian.Uint32(raw[4:8]),
	}
}

// DeallocRequest names the chunk to free.
type DeallocRequest struct {
	Ptr uint32
}

func (r DeallocRequest) Encode() [24]byte {
	var raw [24]byte
	binary.LittleEndian.PutUint32(raw[0:4], r.Ptr)
	return raw
}

func DecodeDeallocRequest(raw [24]byte) DeallocRequest {
	return DeallocRequest{Ptr: binary.LittleEndian.Uint32(raw[0:4])}
}

// DeallocResponse carries only the error kind, 0 for Ok.
type DeallocResponse struct {
	Kind uint32
}

func (r DeallocResponse) Encode() [24]byte {
	var raw [24]byte
	binary.LittleEndian.PutUint32(raw[0:4], r.Kind)
	return raw
}

func DecodeDeallocResponse(raw [24]byte) DeallocResponse {
	return DeallocResponse{Kind: binary.LittleEndian.Uint32(raw[0:4])}
}

// ConsoleOut names a byte range in the caller's address space to write to
// the console sink. In this hosted model "data" is a word index into the
// same arena space as allocator pointers rather than a raw host address.
type ConsoleOut struct {
	Data uint32
	Len  uint32
}

func (c ConsoleOut) Encode() [24]byte {
	var raw [24]byte
	binary.LittleEndian.PutUint32(raw[0:4], c.Data)
	binary.LittleEndian.PutUint32(raw[4:8], c.Len)
	return raw
}

func DecodeConsoleOut(raw [24]byte) ConsoleOut {
	return ConsoleOut{
		Data: binary.LittleEndian.Uint32(raw[0:4]),
		Len:  binary.LittleEndian.Uint32(raw[4:8]),
	}
}
