package serialtrig

import "testing"

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Pulse
		wantErr bool
	}{
		{
			name: "valid",
			line: "T,42,1700000000123456789",
			want: Pulse{ID: 42, HardwareTimestampNs: 1700000000123456789},
		},
		{
			name: "surrounding whitespace",
			line: "  T,7,1000  \r",
			want: Pulse{ID: 7, HardwareTimestampNs: 1000},
		},
		{name: "too few fields", line: "T,42", wantErr: true},
		{name: "too many fields", line: "T,42,1,2", wantErr: true},
		{name: "wrong record type", line: "X,42,1000", wantErr: true},
		{name: "non-numeric id", line: "T,abc,1000", wantErr: true},
		{name: "non-numeric timestamp", line: "T,42,later", wantErr: true},
		{name: "negative id", line: "T,-1,1000", wantErr: true},
		{name: "empty", line: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %+v", tt.line, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLine(%q): %v", tt.line, err)
			}
			if got != tt.want {
				t.Fatalf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestPortOptionsNormalize(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if opts.BaudRate != 115200 || opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}

	if _, err := (PortOptions{DataBits: 9}).Normalize(); err == nil {
		t.Fatal("expected error for 9 data bits")
	}
	if _, err := (PortOptions{StopBits: 3}).Normalize(); err == nil {
		t.Fatal("expected error for 3 stop bits")
	}
	if _, err := (PortOptions{Parity: "X"}).Normalize(); err == nil {
		t.Fatal("expected error for unknown parity")
	}

	opts, err = PortOptions{Parity: "even"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if opts.Parity != "E" {
		t.Fatalf("expected parity E, got %q", opts.Parity)
	}
}
