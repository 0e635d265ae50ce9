package relay

// TransferResponse and DispatchResponse expose the wire types to the
// external test package.
type (
	TransferResponse = transferResponse
	DispatchResponse = dispatchResponse
)
