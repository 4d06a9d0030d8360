// Package lifecycle holds the found-item state machine.
//
// Every legal change to an item's lifecycle status or approval status goes
// through one of the transition functions in this package. They validate the
// item's current state and mutate the in-memory value only on success, so a
// failed transition leaves the item untouched. Persisting the result is the
// caller's job.
//
// Status transitions:
//
//	lost            -> to_be_discarded  (MarkToBeDiscarded, scheduler)
//	to_be_discarded -> discarded        (Discard, scheduler)
//	to_be_discarded -> to_be_discarded  (ExtendDisposal)
//	lost            -> given            (Give)
//	to_be_discarded -> given            (Give)
//
// Approval moves once from pending to approved or rejected and never back.
package lifecycle
