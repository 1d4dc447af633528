package host

import "errors"

var (
	// ErrFuelExhausted indicates the call budget cannot cover the call.
	ErrFuelExhausted = errors.New("host: fuel exhausted")

	// ErrUnknownContract indicates the target is neither deployed, a template, nor a spawned instance.
	ErrUnknownContract = errors.New("host: unknown contract")

	// ErrNilContract indicates a nil contract was supplied.
	ErrNilContract = errors.New("host: contract is nil")

	// ErrDuplicateContract indicates the id is already deployed or registered as a template.
	ErrDuplicateContract = errors.New("host: contract id already in use")

	// ErrInsufficientBalance indicates a contract tried to send tokens it does not hold.
	ErrInsufficientBalance = errors.New("host: insufficient balance")

	// ErrInvalidTx indicates a raw transaction that does not parse.
	ErrInvalidTx = errors.New("host: invalid transaction")

	// ErrNoSender indicates a top-level invocation moves tokens without a sending account.
	ErrNoSender = errors.New("host: invocation has no sender")

	// ErrInvalidAccount indicates a key hash that does not name an account.
	ErrInvalidAccount = errors.New("host: invalid account")

	// ErrReservedID indicates a contract id inside the account block.
	ErrReservedID = errors.New("host: id is reserved for accounts")

	// ErrInvalidSignature indicates input 0 is not a valid P2PKH spend of its source output.
	ErrInvalidSignature = errors.New("host: invalid input signature")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("host: required parameter is nil")
)
