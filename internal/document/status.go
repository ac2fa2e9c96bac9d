package document

// DeriveStatus computes a document's aggregate status from the full set of
// its sign requests. Any rejected request vetoes the document. The document
// is complete only when every request is signed or skipped. A document with
// no requests is a draft.
//
// Callers must pass every request the document owns and run the surrounding
// read inside the same transaction as the mutation that triggered the
// recompute, or two concurrent signers can derive against stale snapshots.
func DeriveStatus(requests []*SignRequest) Status {
	if len(requests) == 0 {
		return StatusDraft
	}

	allSettled := true
	for _, req := range requests {
		switch req.Status {
		case RequestRejected:
			return StatusRejected
		case RequestSigned, RequestSkipped:
		default:
			allSettled = false
		}
	}

	if allSettled {
		return StatusComplete
	}
	return StatusInProgress
}
