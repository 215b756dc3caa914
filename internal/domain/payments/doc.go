// Package payments implements the payment flow over the broker and the
// pub/sub fabric: a producer into the processing queue plus the three
// branch consumers. The validator judges payloads and issues receipts,
// the notifier broadcasts order updates, and the auditor keeps an
// in-memory trail of digest-stamped records.
package payments
