package buildinfo

import (
	"testing"
)

// Test Context methods
func TestContext_Version(t *testing.T) {
	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{
			name: "nil context",
			ctx:  nil,
			want: UnknownValue,
		},
		{
			name: "empty version",
			ctx:  NewContext("", "2023-01-01"),
			want: UnknownValue,
		},
		{
			name: "valid version",
			ctx:  NewContext("1.0.0", "2023-01-01"),
			want: "1.0.0",
		},
		{
			name: "version with pre-release tag",
			ctx:  NewContext("1.0.0-beta.1", "2023-01-01"),
			want: "1.0.0-beta.1",
		},
		{
			name: "version with build metadata",
			ctx:  NewContext("1.0.0+build.123", "2023-01-01"),
			want: "1.0.0+build.123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ctx.GetVersion()
			if got != tt.want {
				t.Errorf("Context.GetVersion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContext_BuildDate(t *testing.T) {
	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{
			name: "nil context",
			ctx:  nil,
			want: UnknownValue,
		},
		{
			name: "empty build date",
			ctx:  NewContext("1.0.0", ""),
			want: UnknownValue,
		},
		{
			name: "valid build date",
			ctx:  NewContext("1.0.0", "2023-01-01T12:00:00Z"),
			want: "2023-01-01T12:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ctx.GetBuildDate()
			if got != tt.want {
				t.Errorf("Context.GetBuildDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Context must satisfy BuildInfo so callers can depend on the interface.
func TestContext_ImplementsBuildInfo(t *testing.T) {
	var _ BuildInfo = (*Context)(nil)

	var info BuildInfo = NewContext("2.1.0", "2024-06-01")
	if got := info.GetVersion(); got != "2.1.0" {
		t.Errorf("BuildInfo.GetVersion() = %v, want 2.1.0", got)
	}
	if got := info.GetBuildDate(); got != "2024-06-01" {
		t.Errorf("BuildInfo.GetBuildDate() = %v, want 2024-06-01", got)
	}
}
