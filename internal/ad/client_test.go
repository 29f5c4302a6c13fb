package ad

import (
	"reflect"
	"testing"
)

func TestParseSPN(t *testing.T) {
	tests := []struct {
		spn  string
		want SPN
	}{
		{
			spn: "MSSQLSvc/sql01.corp.local:1433",
			want: SPN{
				FullSPN:      "MSSQLSvc/sql01.corp.local:1433",
				ServiceClass: "MSSQLSvc",
				Hostname:     "sql01.corp.local",
				Port:         "1433",
			},
		},
		{
			spn: "MSSQLSvc/sql01.corp.local:SQLEXPRESS",
			want: SPN{
				FullSPN:      "MSSQLSvc/sql01.corp.local:SQLEXPRESS",
				ServiceClass: "MSSQLSvc",
				Hostname:     "sql01.corp.local",
				InstanceName: "SQLEXPRESS",
			},
		},
		{
			spn: "MSSQLSvc/sql01.corp.local",
			want: SPN{
				FullSPN:      "MSSQLSvc/sql01.corp.local",
				ServiceClass: "MSSQLSvc",
				Hostname:     "sql01.corp.local",
			},
		},
		{
			spn:  "malformed",
			want: SPN{FullSPN: "malformed"},
		},
	}

	for _, tt := range tests {
		got := parseSPN(tt.spn)
		if got != tt.want {
			t.Errorf("parseSPN(%q) = %+v, want %+v", tt.spn, got, tt.want)
		}
	}
}

func TestDomainToDN(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"corp.local", "DC=corp,DC=local"},
		{"sub.corp.example.com", "DC=sub,DC=corp,DC=example,DC=com"},
		{"local", "DC=local"},
	}
	for _, tt := range tests {
		if got := domainToDN(tt.domain); got != tt.want {
			t.Errorf("domainToDN(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

func TestDecodeSID(t *testing.T) {
	// S-1-5-32-544, the builtin Administrators group.
	raw := []byte{
		0x01, 0x02,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x05,
		0x20, 0x00, 0x00, 0x00,
		0x20, 0x02, 0x00, 0x00,
	}
	if got, want := decodeSID(raw), "S-1-5-32-544"; got != want {
		t.Errorf("decodeSID = %q, want %q", got, want)
	}

	if got := decodeSID([]byte{0x01}); got != "" {
		t.Errorf("decodeSID on truncated input = %q, want empty", got)
	}
}

func TestUniqueHosts(t *testing.T) {
	spns := []SPN{
		{Hostname: "sql01.corp.local", Port: "1433"},
		{Hostname: "SQL01.corp.local", InstanceName: "SQLEXPRESS"},
		{Hostname: "sql02.corp.local"},
		{Hostname: ""},
	}
	got := UniqueHosts(spns)
	want := []string{"sql01.corp.local", "sql02.corp.local"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueHosts = %v, want %v", got, want)
	}
}

func TestBindDN(t *testing.T) {
	tests := []struct {
		user string
		want string
	}{
		{"alice", "alice@corp.local"},
		{"alice@corp.local", "alice@corp.local"},
		{`CORP\alice`, `CORP\alice`},
		{"CN=alice,DC=corp,DC=local", "CN=alice,DC=corp,DC=local"},
	}
	for _, tt := range tests {
		c := NewClient("corp.local", "", tt.user, "secret")
		if got := c.bindDN(); got != tt.want {
			t.Errorf("bindDN(%q) = %q, want %q", tt.user, got, tt.want)
		}
	}
}
