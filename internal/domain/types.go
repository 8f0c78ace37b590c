package domain

// TransactionType classifies a ledger mutation.
type TransactionType string

const (
	TransactionTypeAddition      TransactionType = "addition"
	TransactionTypeDeduction     TransactionType = "deduction"
	TransactionTypeAdminAddition TransactionType = "admin_addition"
	TransactionTypeAdminSet      TransactionType = "admin_set"
)

// Valid checks whether the transaction type is one of the known values
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeAddition, TransactionTypeDeduction, TransactionTypeAdminAddition, TransactionTypeAdminSet:
		return true
	}
	return false
}

// String returns the string representation of the transaction type
func (t TransactionType) String() string {
	return string(t)
}

// PluginStatus represents the lifecycle state of a plugin.
// Every workflow writes "completed"; "draft" exists only as the schema default
// and is kept for rows created outside the generation path.
type PluginStatus string

const (
	PluginStatusDraft     PluginStatus = "draft"
	PluginStatusCompleted PluginStatus = "completed"
)

// Valid checks whether the plugin status is one of the known values
func (s PluginStatus) Valid() bool {
	switch s {
	case PluginStatusDraft, PluginStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of the plugin status
func (s PluginStatus) String() string {
	return string(s)
}

// OperationKind identifies which generation workflow produced a version
type OperationKind string

const (
	OperationGenerate OperationKind = "generation"
	OperationImprove  OperationKind = "improvement"
	OperationFix      OperationKind = "fix"
)
