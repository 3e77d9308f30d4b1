package notification

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fullMatrix(v Verdict) Matrix {
	m := map[Role]Verdict{}
	for _, r := range AllRoles() {
		m[r] = v
	}
	return PerRole(m)
}

func TestMatrix_Validate(t *testing.T) {
	withWildcardKey := map[Role]Verdict{roleWildcard: Enabled}
	for _, r := range AllRoles() {
		withWildcardKey[r] = Enabled
	}

	tests := []struct {
		name    string
		matrix  Matrix
		wantErr string
	}{
		{name: "wildcard", matrix: Wildcard(IfActive)},
		{name: "total per-role", matrix: fullMatrix(Disabled)},
		{name: "zero value", matrix: Matrix{}, wantErr: "empty"},
		{name: "invalid wildcard verdict", matrix: Wildcard(Verdict(0)), wantErr: "invalid"},
		{name: "mixed", matrix: PerRole(withWildcardKey), wantErr: "mixes wildcard"},
		{
			name:    "missing role",
			matrix:  PerRole(map[Role]Verdict{RoleNodeAdmin: Enabled, RoleReporter: Disabled}),
			wantErr: "omits roles: connection_manager, transaction_manager",
		},
		{
			name: "unknown role",
			matrix: func() Matrix {
				m := map[Role]Verdict{"auditor": Enabled}
				for _, r := range AllRoles() {
					m[r] = Enabled
				}
				return PerRole(m)
			}(),
			wantErr: "unknown roles: auditor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.matrix.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMatrix_Lookup(t *testing.T) {
	w := Wildcard(Enabled)
	for _, r := range AllRoles() {
		v, ok := w.Lookup(r)
		require.True(t, ok)
		require.Equal(t, Enabled, v)
	}

	m := PerRole(map[Role]Verdict{
		RoleNodeAdmin:          Enabled,
		RoleConnectionManager:  IfActive,
		RoleTransactionManager: Disabled,
		RoleReporter:           Disabled,
	})
	v, ok := m.Lookup(RoleConnectionManager)
	require.True(t, ok)
	require.Equal(t, IfActive, v)
	require.False(t, m.IsWildcard())

	_, ok = m.Lookup("")
	require.False(t, ok)
}

func TestPerRole_CopiesInput(t *testing.T) {
	src := map[Role]Verdict{}
	for _, r := range AllRoles() {
		src[r] = Enabled
	}
	m := PerRole(src)
	delete(src, RoleReporter)
	require.NoError(t, m.Validate())
}

func TestPolicy_ValidateAggregates(t *testing.T) {
	p := Policy{
		Visibility: Wildcard(Enabled),
		Push:       Matrix{},
		Email:      fullMatrix(IfActive),
		SMS:        PerRole(map[Role]Verdict{RoleNodeAdmin: Enabled}),
	}
	err := p.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "push: matrix is empty")
	require.Contains(t, err.Error(), "sms: matrix omits roles")
	require.NotContains(t, err.Error(), "email")
}

func TestStrangerPolicy_IsValid(t *testing.T) {
	require.NoError(t, StrangerPolicy.Validate())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("transaction_manager")
	require.True(t, ok)
	require.Equal(t, RoleTransactionManager, r)

	_, ok = ParseRole("*")
	require.False(t, ok)
}
