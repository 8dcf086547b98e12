package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bugboard/bugboard/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type proberFunc func(ctx context.Context, email string) (bool, error)

func (f proberFunc) Exists(ctx context.Context, email string) (bool, error) { return f(ctx, email) }

func TestExistenceCheck_FailSafe(t *testing.T) {
	cases := []struct {
		name    string
		probe   proberFunc
		want    bool
		wantErr bool
	}{
		{
			name:  "found",
			probe: func(context.Context, string) (bool, error) { return true, nil },
			want:  true,
		},
		{
			name:  "empty body",
			probe: func(context.Context, string) (bool, error) { return false, nil },
			want:  false,
		},
		{
			name: "404 means absent",
			probe: func(context.Context, string) (bool, error) {
				return false, apperror.NewApplicationError("GET", http.StatusNotFound, "")
			},
			want: false,
		},
		{
			name: "other status propagates",
			probe: func(context.Context, string) (bool, error) {
				return false, fmt.Errorf("probe: %w", apperror.NewApplicationError("GET", http.StatusInternalServerError, "boom"))
			},
			wantErr: true,
		},
		{
			name: "network failure assumes present",
			probe: func(context.Context, string) (bool, error) {
				return false, apperror.NewCommunicationError("GET", errors.New("connection refused"))
			},
			want: true,
		},
		{
			name: "interrupted wait assumes present",
			probe: func(context.Context, string) (bool, error) {
				return false, context.Canceled
			},
			want: true,
		},
		{
			name: "unclassified error assumes present",
			probe: func(context.Context, string) (bool, error) {
				return false, errors.New("decoder exploded")
			},
			want: true,
		},
		{
			name: "panic assumes present",
			probe: func(context.Context, string) (bool, error) {
				panic("nil pointer")
			},
			want: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := NewExistenceCheck(tc.probe, nil, nil)
			got, err := check.ExistsUser(context.Background(), "a@b.c")
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, http.StatusInternalServerError, apperror.StatusCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExistenceCheck_NormalizesEmail(t *testing.T) {
	check := NewExistenceCheck(proberFunc(func(ctx context.Context, email string) (bool, error) {
		assert.Equal(t, "alice@example.com", email)
		return true, nil
	}), nil, nil)
	ok, err := check.ExistsUser(context.Background(), "  Alice@Example.COM ")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = check.ExistsUser(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyEmail)
}

func TestExistenceCheck_CustomPolicy(t *testing.T) {
	strict := func(err error) (bool, error) { return false, err }
	check := NewExistenceCheck(proberFunc(func(context.Context, string) (bool, error) {
		return false, errors.New("down")
	}), strict, nil)

	_, err := check.ExistsUser(context.Background(), "a@b.c")
	assert.EqualError(t, err, "down")
}

func TestExistenceCheck_PolicyLogOmitsEmail(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	check := NewExistenceCheck(proberFunc(func(context.Context, string) (bool, error) {
		return false, apperror.NewCommunicationError("GET", errors.New("connection refused"))
	}), nil, zap.New(core))

	ok, err := check.ExistsUser(context.Background(), "secret.person@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	entries := logs.FilterMessage("existence probe failed, applying policy").All()
	require.Len(t, entries, 1)
	for _, e := range logs.All() {
		for _, f := range e.Context {
			assert.NotContains(t, f.String, "secret.person", "field %s", f.Key)
		}
	}
}
