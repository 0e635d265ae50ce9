package ledger

// TransactionResponse exposes the wire type to the external test package.
type TransactionResponse = transactionResponse
