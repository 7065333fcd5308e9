// Package container parses the compiled script container that embeds
// event scripts alongside their name/argument metadata and a shared
// string pool. It is the core decompilation pipeline's sole source of
// bytes, global/scene names, and string-pool lookups.
package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	offGlobalCount   = 0x22 // 2 bytes LE
	offStrpoolOffset = 0x24 // 4 bytes LE
	offEventTable    = 0x28 // 4 bytes LE

	eventNameOffset   = 0x00 // 4 bytes LE, into strpool; 0 == anonymous
	eventBodyOffset   = 0x04 // 4 bytes LE, absolute offset of the script body
	eventKind         = 0x0C // 1 byte
	eventArgCount     = 0x0D // 1 byte
	eventTotalVarSize = 0x12 // 2 bytes LE, arguments + locals
)

// FormatError is error kind 2: an out-of-range offset or a truncated
// record encountered while parsing the container.
type FormatError struct {
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("container format error at offset 0x%X: %s", e.Offset, e.Reason)
}

func formatErr(offset int, format string, args ...any) error {
	return &FormatError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// Scene describes one event script embedded in the container: its
// synthesized name, raw metadata, synthesized variable names, and the
// byte span of its script body.
type Scene struct {
	Name     string
	Kind     byte
	ArgCount int
	VarNames []string // arg_0..arg_{argc-1}, then var_0..var_{nlocals-1}
	IsGlobal bool
	Script   []byte
}

// Container is a parsed script container: the string pool, the
// synthesized global names, and every embedded scene.
type Container struct {
	strpool     []byte
	GlobalNames []string
	Scenes      []Scene
}

// GetString returns the NUL-terminated string starting at offset in the
// container's string pool.
func (c *Container) GetString(offset int) (string, error) {
	if offset < 0 || offset >= len(c.strpool) {
		return "", formatErr(offset, "string-pool offset out of range (pool is %d bytes)", len(c.strpool))
	}
	end := bytes.IndexByte(c.strpool[offset:], 0)
	if end < 0 {
		return "", formatErr(offset, "string at this offset is not NUL-terminated")
	}
	return string(c.strpool[offset : offset+end]), nil
}

// Parse reads a container from its raw bytes. The container's own
// internal offsets (string pool, event table, each event's script body)
// are absolute, relative to the start of data.
func Parse(data []byte) (*Container, error) {
	if len(data) < offEventTable+4 {
		return nil, formatErr(0, "file is too small to hold a container header (%d bytes)", len(data))
	}

	globalCount := int(binary.LittleEndian.Uint16(data[offGlobalCount:]))
	strpoolOffset := int(binary.LittleEndian.Uint32(data[offStrpoolOffset:]))
	eventTableOffset := int(binary.LittleEndian.Uint32(data[offEventTable:]))

	if strpoolOffset < 0 || strpoolOffset > len(data) {
		return nil, formatErr(offStrpoolOffset, "string-pool offset %d is out of range", strpoolOffset)
	}
	if eventTableOffset < 0 || eventTableOffset > len(data) {
		return nil, formatErr(offEventTable, "event-table offset %d is out of range", eventTableOffset)
	}

	eventOffsets, err := readEventTable(data, eventTableOffset)
	if err != nil {
		return nil, err
	}

	c := &Container{
		strpool:     data[strpoolOffset:],
		GlobalNames: syntheticNames("global_", globalCount),
	}

	bodyOffsets := make([]int, 0, len(eventOffsets))
	for _, recOffset := range eventOffsets {
		body, err := readEventBodyOffset(data, recOffset)
		if err != nil {
			return nil, err
		}
		bodyOffsets = append(bodyOffsets, body)
	}

	for i, recOffset := range eventOffsets {
		scene, err := parseEventRecord(c, data, recOffset, i, bodyOffsets[i], strpoolOffset, eventTableOffset)
		if err != nil {
			return nil, err
		}
		c.Scenes = append(c.Scenes, scene)
	}

	return c, nil
}

func readEventTable(data []byte, tableOffset int) ([]int, error) {
	var offsets []int
	for i := 0; ; i++ {
		pos := tableOffset + i*4
		if pos+4 > len(data) {
			return nil, formatErr(pos, "event table runs past end of file without a terminating zero entry")
		}
		entry := binary.LittleEndian.Uint32(data[pos:])
		if entry == 0 {
			return offsets, nil
		}
		offsets = append(offsets, int(entry))
	}
}

func readEventBodyOffset(data []byte, recOffset int) (int, error) {
	if recOffset < 0 || recOffset+eventBodyOffset+4 > len(data) {
		return 0, formatErr(recOffset, "event record is truncated before its body offset field")
	}
	return int(binary.LittleEndian.Uint32(data[recOffset+eventBodyOffset:])), nil
}

func parseEventRecord(c *Container, data []byte, recOffset, index, bodyOffset, strpoolOffset, eventTableOffset int) (Scene, error) {
	if recOffset < 0 || recOffset+eventTotalVarSize+2 > len(data) {
		return Scene{}, formatErr(recOffset, "event record is truncated")
	}

	nameOffset := int(binary.LittleEndian.Uint32(data[recOffset+eventNameOffset:]))
	kind := data[recOffset+eventKind]
	argCount := int(data[recOffset+eventArgCount])
	totalVars := int(binary.LittleEndian.Uint16(data[recOffset+eventTotalVarSize:]))

	name := fmt.Sprintf("unk_%d", index)
	if nameOffset != 0 {
		s, err := c.GetString(nameOffset)
		if err != nil {
			return Scene{}, err
		}
		name = s
	}

	if totalVars < argCount {
		return Scene{}, formatErr(recOffset, "total variable count %d is less than argument count %d", totalVars, argCount)
	}

	if bodyOffset < 0 || bodyOffset > len(data) {
		return Scene{}, formatErr(recOffset, "script body offset %d is out of range", bodyOffset)
	}

	varNames := append(syntheticNames("arg_", argCount), syntheticNames("var_", totalVars-argCount)...)

	return Scene{
		Name:     name,
		Kind:     kind,
		ArgCount: argCount,
		VarNames: varNames,
		IsGlobal: nameOffset != 0,
		Script:   data[bodyOffset:scriptEnd(data, bodyOffset, strpoolOffset, eventTableOffset)],
	}, nil
}

// scriptEnd bounds a script body at the nearest known structure that
// follows it: the string pool or the event table, whichever comes first,
// falling back to the end of the file. The container format gives no
// explicit per-script length, so this is the loader's own inference.
func scriptEnd(data []byte, bodyOffset, strpoolOffset, eventTableOffset int) int {
	end := len(data)
	if strpoolOffset > bodyOffset && strpoolOffset < end {
		end = strpoolOffset
	}
	if eventTableOffset > bodyOffset && eventTableOffset < end {
		end = eventTableOffset
	}
	return end
}

func syntheticNames(prefix string, n int) []string {
	if n <= 0 {
		return nil
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return names
}
