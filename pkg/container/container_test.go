package container

import (
	"encoding/binary"
	"testing"
)

// buildMinimal assembles a tiny container with one named, non-global
// scene whose body is a single RETN instruction, matching the layout
// documented for the loader.
func buildMinimal(t *testing.T) []byte {
	t.Helper()

	const (
		eventTableOffset = 44
		recordOffset     = 52
		bodyOffset       = 72
		strpoolOffset    = 73
	)

	data := make([]byte, 79)
	binary.LittleEndian.PutUint16(data[offGlobalCount:], 2)
	binary.LittleEndian.PutUint32(data[offStrpoolOffset:], strpoolOffset)
	binary.LittleEndian.PutUint32(data[offEventTable:], eventTableOffset)

	binary.LittleEndian.PutUint32(data[eventTableOffset:], recordOffset)
	binary.LittleEndian.PutUint32(data[eventTableOffset+4:], 0) // terminator

	binary.LittleEndian.PutUint32(data[recordOffset+eventNameOffset:], 1) // "main" at strpool offset 1
	binary.LittleEndian.PutUint32(data[recordOffset+eventBodyOffset:], bodyOffset)
	data[recordOffset+eventKind] = 1
	data[recordOffset+eventArgCount] = 0
	binary.LittleEndian.PutUint16(data[recordOffset+eventTotalVarSize:], 0)

	data[bodyOffset] = 0x45 // RETN

	copy(data[strpoolOffset:], []byte{0x00, 'm', 'a', 'i', 'n', 0x00})

	return data
}

func TestParseMinimalContainer(t *testing.T) {
	c, err := Parse(buildMinimal(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(c.GlobalNames) != 2 || c.GlobalNames[0] != "global_0" || c.GlobalNames[1] != "global_1" {
		t.Errorf("GlobalNames = %v, want [global_0 global_1]", c.GlobalNames)
	}
	if len(c.Scenes) != 1 {
		t.Fatalf("got %d scenes, want 1", len(c.Scenes))
	}

	s := c.Scenes[0]
	if s.Name != "main" {
		t.Errorf("Name = %q, want main", s.Name)
	}
	if s.IsGlobal {
		t.Error("IsGlobal = true, want false (kind=1)")
	}
	if s.ArgCount != 0 || len(s.VarNames) != 0 {
		t.Errorf("ArgCount=%d VarNames=%v, want 0 and empty", s.ArgCount, s.VarNames)
	}
	if len(s.Script) != 1 || s.Script[0] != 0x45 {
		t.Errorf("Script = %v, want [0x45]", s.Script)
	}
}

func TestParseAnonymousEventSynthesizesName(t *testing.T) {
	data := buildMinimal(t)
	binary.LittleEndian.PutUint32(data[52+eventNameOffset:], 0)

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Scenes[0].Name != "unk_0" {
		t.Errorf("Name = %q, want unk_0", c.Scenes[0].Name)
	}
}

func TestParseVariableNameSynthesis(t *testing.T) {
	data := buildMinimal(t)
	data[52+eventArgCount] = 2
	binary.LittleEndian.PutUint16(data[52+eventTotalVarSize:], 5)

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"arg_0", "arg_1", "var_0", "var_1", "var_2"}
	got := c.Scenes[0].VarNames
	if len(got) != len(want) {
		t.Fatalf("VarNames = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("VarNames[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseTruncatedFile(t *testing.T) {
	_, err := Parse(make([]byte, 10))
	if err == nil {
		t.Fatal("expected a format error on a too-small file")
	}
	if _, ok := err.(*FormatError); !ok {
		t.Errorf("err = %T, want *FormatError", err)
	}
}

func TestParseEventTableWithoutTerminator(t *testing.T) {
	const eventTableOffset = 44
	data := make([]byte, eventTableOffset+4) // room for one entry, no terminator
	binary.LittleEndian.PutUint32(data[offStrpoolOffset:], eventTableOffset)
	binary.LittleEndian.PutUint32(data[offEventTable:], eventTableOffset)
	binary.LittleEndian.PutUint32(data[eventTableOffset:], 1000)

	_, err := Parse(data)
	if err == nil {
		t.Fatal("expected a format error for a missing terminator")
	}
	if _, ok := err.(*FormatError); !ok {
		t.Errorf("err = %T, want *FormatError", err)
	}
}

func TestGetStringOutOfRange(t *testing.T) {
	c, err := Parse(buildMinimal(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := c.GetString(1000); err == nil {
		t.Fatal("expected an out-of-range error")
	}
}

func TestGetStringNotTerminated(t *testing.T) {
	c := &Container{strpool: []byte{'a', 'b', 'c'}}
	if _, err := c.GetString(0); err == nil {
		t.Fatal("expected a not-NUL-terminated error")
	}
}
