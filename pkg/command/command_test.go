package command

import (
	"bytes"
	"errors"
	"testing"
)

func TestCommandFrames(t *testing.T) {
	mustSound := func(id int) *Command {
		c, err := PlaySound(id)
		if err != nil {
			t.Fatalf("PlaySound(%d) failed: %v", id, err)
		}
		return c
	}
	mustPower := func(level int) *Command {
		c, err := SetPowerLevel(level)
		if err != nil {
			t.Fatalf("SetPowerLevel(%d) failed: %v", level, err)
		}
		return c
	}
	mustLights := func(mode LightMode) *Command {
		c, err := SetLightMode(mode)
		if err != nil {
			t.Fatalf("SetLightMode(%v) failed: %v", mode, err)
		}
		return c
	}

	tests := []struct {
		cmd  *Command
		want []byte
	}{
		{Lock(), []byte{0x81, 0x00, 0x03, 0x01, 0x00, 0xA0, 0x00}},
		{Unlock(), []byte{0x81, 0x00, 0x03, 0x01, 0x00, 0xA0, 0x01}},
		{ArmAlarm(), []byte{0x81, 0x00, 0x03, 0x01, 0x01, 0xA0, 0x01}},
		{DisarmAlarm(), []byte{0x81, 0x00, 0x03, 0x01, 0x01, 0xA0, 0x00}},
		{TriggerAlarm(), []byte{0x81, 0x00, 0x03, 0x01, 0x02, 0xA0, 0x01}},
		{mustSound(1), []byte{0x81, 0x00, 0x03, 0x01, 0x00, 0x21, 0x01}},
		{mustSound(2), []byte{0x81, 0x00, 0x03, 0x01, 0x00, 0x21, 0x02}},
		{BellSingle(), []byte{0x81, 0x00, 0x03, 0x02, 0x00, 0xA0, 0x01}},
		{BellDouble(), []byte{0x81, 0x00, 0x03, 0x02, 0x00, 0xA0, 0x02}},
		{Horn(), []byte{0x81, 0x00, 0x03, 0x02, 0x01, 0xA0, 0x01}},
		{PowerOn(), []byte{0x81, 0x00, 0x03, 0x03, 0x00, 0xA0, 0x01}},
		{PowerOff(), []byte{0x81, 0x00, 0x03, 0x03, 0x00, 0xA0, 0x00}},
		{BoostOn(), []byte{0x81, 0x00, 0x03, 0x03, 0x01, 0xA0, 0x01}},
		{BoostOff(), []byte{0x81, 0x00, 0x03, 0x03, 0x01, 0xA0, 0x00}},
		{mustPower(2), []byte{0x81, 0x00, 0x03, 0x01, 0x00, 0x67, 0x02}},
		{mustPower(0), []byte{0x81, 0x00, 0x03, 0x01, 0x00, 0x67, 0x00}},
		{mustLights(LightOff), []byte{0x81, 0x00, 0x03, 0x01, 0x00, 0x6B, 0x00}},
		{mustLights(LightOn), []byte{0x81, 0x00, 0x03, 0x01, 0x00, 0x6B, 0x01}},
		{mustLights(LightAuto), []byte{0x81, 0x00, 0x03, 0x01, 0x00, 0x6B, 0x03}},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Name, func(t *testing.T) {
			got := tt.cmd.Frame(0x81)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Frame(0x81) = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestCommandFrameUsesHeader(t *testing.T) {
	got := Unlock().Frame(0x82)
	want := []byte{0x82, 0x00, 0x03, 0x01, 0x00, 0xA0, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("Frame(0x82) = % X, want % X", got, want)
	}
}

func TestInvalidParameters(t *testing.T) {
	if c, err := SetPowerLevel(5); !errors.Is(err, ErrInvalidParameter) || c != nil {
		t.Errorf("SetPowerLevel(5): got (%v, %v), want ErrInvalidParameter and no command", c, err)
	}
	if c, err := SetPowerLevel(-1); !errors.Is(err, ErrInvalidParameter) || c != nil {
		t.Errorf("SetPowerLevel(-1): got (%v, %v), want ErrInvalidParameter and no command", c, err)
	}
	if c, err := PlaySound(3); !errors.Is(err, ErrInvalidParameter) || c != nil {
		t.Errorf("PlaySound(3): got (%v, %v), want ErrInvalidParameter and no command", c, err)
	}
	if c, err := SetLightMode(LightMode(0x02)); !errors.Is(err, ErrInvalidParameter) || c != nil {
		t.Errorf("SetLightMode(0x02): got (%v, %v), want ErrInvalidParameter and no command", c, err)
	}
}

func TestParseLightMode(t *testing.T) {
	tests := []struct {
		in      string
		want    LightMode
		wantErr bool
	}{
		{"off", LightOff, false},
		{"on", LightOn, false},
		{"auto", LightAuto, false},
		{"pulse", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLightMode(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("ParseLightMode(%q): got err %v, want ErrInvalidParameter", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseLightMode(%q) = (%v, %v), want %v", tt.in, got, err, tt.want)
		}
	}
}
