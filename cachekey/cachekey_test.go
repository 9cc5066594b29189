// Package cachekey_test contains tests for the cachekey package.
package cachekey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scotline/pkg/cachekey"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		reqName  string
		fields   []cachekey.Field
		expected string
	}{
		{
			name:     "no fields returns the request name alone",
			reqName:  "Users.Queries.ListUsers",
			fields:   nil,
			expected: "Users.Queries.ListUsers",
		},
		{
			name:    "single field",
			reqName: "Users.Queries.GetUser",
			fields: []cachekey.Field{
				cachekey.F("id", 42),
			},
			expected: "Users.Queries.GetUser::id:42",
		},
		{
			name:    "multiple fields sorted by name",
			reqName: "Users.Queries.GetUser",
			fields: []cachekey.Field{
				cachekey.F("role", "admin"),
				cachekey.F("id", 42),
			},
			expected: "Users.Queries.GetUser::id:42::role:admin",
		},
		{
			name:    "bool and nil values",
			reqName: "Users.Queries.ListUsers",
			fields: []cachekey.Field{
				cachekey.F("active", true),
				cachekey.F("cursor", nil),
			},
			expected: "Users.Queries.ListUsers::active:true::cursor:nil",
		},
		{
			name:    "struct value rendered as compact json",
			reqName: "Users.Queries.Search",
			fields: []cachekey.Field{
				cachekey.F("filter", struct {
					Name string `json:"name"`
				}{Name: "ann"}),
			},
			expected: `Users.Queries.Search::filter:{"name":"ann"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cachekey.Build(tt.reqName, tt.fields...))
		})
	}
}

func TestBuildOrderInvariance(t *testing.T) {
	a := cachekey.Build("Items.Queries.GetItem",
		cachekey.F("id", 7),
		cachekey.F("lang", "en"),
		cachekey.F("deep", true),
	)
	b := cachekey.Build("Items.Queries.GetItem",
		cachekey.F("lang", "en"),
		cachekey.F("deep", true),
		cachekey.F("id", 7),
	)

	assert.Equal(t, a, b)
}

func TestBuildValueSensitivity(t *testing.T) {
	a := cachekey.Build("Items.Queries.GetItem", cachekey.F("id", 7))
	b := cachekey.Build("Items.Queries.GetItem", cachekey.F("id", 8))

	assert.NotEqual(t, a, b)
}
