package domain

const (
	// Token accounting constants
	DEFAULT_SIGNUP_TOKENS  = 1000
	MIN_GENERATION_BALANCE = 10

	// Cost formula constants
	CHARS_PER_TOKEN    = 4
	INPUT_TOKEN_PRICE  = 0.1
	OUTPUT_TOKEN_PRICE = 0.2

	// Generation defaults
	DEFAULT_MODEL = "gpt-4"

	// History constants
	TRANSACTION_PAGE_SIZE = 50
)
