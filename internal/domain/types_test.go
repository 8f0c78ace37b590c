package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionType_Valid(t *testing.T) {
	tests := []struct {
		name     string
		txType   TransactionType
		expected bool
	}{
		{name: "addition", txType: TransactionTypeAddition, expected: true},
		{name: "deduction", txType: TransactionTypeDeduction, expected: true},
		{name: "admin addition", txType: TransactionTypeAdminAddition, expected: true},
		{name: "admin set", txType: TransactionTypeAdminSet, expected: true},
		{name: "empty", txType: TransactionType(""), expected: false},
		{name: "typo", txType: TransactionType("dedcution"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.txType.Valid())
		})
	}
}

func TestPluginStatus_Valid(t *testing.T) {
	tests := []struct {
		name     string
		status   PluginStatus
		expected bool
	}{
		{name: "draft", status: PluginStatusDraft, expected: true},
		{name: "completed", status: PluginStatusCompleted, expected: true},
		{name: "empty", status: PluginStatus(""), expected: false},
		{name: "unknown", status: PluginStatus("archived"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.Valid())
		})
	}
}
