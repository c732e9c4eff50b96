// Package ledger records verb entries against a store and queries them.
//
// A Ledger stamps every entry with a UUIDv7 id and a fixed-width UTC
// timestamp before handing it to the store, so text ordering of the
// timestamp column equals time ordering on every engine. Entries are never
// updated or deleted.
//
// Clock and IDGenerator are injectable so tests and golden traces get
// reproducible ids and timestamps:
//
//	l := ledger.New(s,
//	    ledger.WithClock(testutil.NewStepClock(time.Time{}, time.Second)),
//	    ledger.WithIDGenerator(testutil.NewSequentialIDs()),
//	)
//	entry, err := l.Be(ctx, contextID, "mood", "curious")
package ledger
