package instruction

import (
	"bytes"
	"errors"
	"testing"
)

func TestCreateWireLayout(t *testing.T) {
	data, err := Encode(Create{Name: "Ballet", Symbol: "BDB", URI: "u"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{
		0x00,
		6, 0, 0, 0, 'B', 'a', 'l', 'l', 'e', 't',
		3, 0, 0, 0, 'B', 'D', 'B',
		1, 0, 0, 0, 'u',
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("unexpected encoding\n got %v\nwant %v", data, want)
	}

	req, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	c, ok := req.(Create)
	if !ok {
		t.Fatalf("expected Create, got %T", req)
	}
	if c.Name != "Ballet" || c.Symbol != "BDB" || c.URI != "u" {
		t.Fatalf("unexpected args: %+v", c)
	}
}

func TestMintWireLayout(t *testing.T) {
	data, err := Encode(Mint{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(data, []byte{0x01}) {
		t.Fatalf("unexpected encoding %v", data)
	}
	req, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Kind() != KindMint {
		t.Fatalf("expected mint, got %s", req.Kind())
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	valid, _ := Encode(Create{Name: "a", Symbol: "b", URI: "c"})

	cases := map[string][]byte{
		"empty":              {},
		"unknown kind":       {0x02},
		"mint trailing":      {0x01, 0x00},
		"create no body":     {0x00},
		"truncated length":   {0x00, 0x01, 0x00},
		"length past end":    {0x00, 0xff, 0xff, 0xff, 0xff, 'a'},
		"create trailing":    append(append([]byte{}, valid...), 0x00),
		"create missing uri": valid[:len(valid)-5],
		"invalid utf8":       {0x00, 1, 0, 0, 0, 0xff, 0, 0, 0, 0, 0, 0, 0, 0},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(data); !errors.Is(err, ErrInvalidInstruction) {
				t.Fatalf("expected ErrInvalidInstruction, got %v", err)
			}
		})
	}
}

func TestCreateAllowsEmptyStrings(t *testing.T) {
	data, err := Encode(&Create{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != 13 {
		t.Fatalf("expected 13 bytes, got %d", len(data))
	}
	if _, err := Decode(data); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
