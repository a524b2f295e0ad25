//go:build !paymentmethods_v2

package dir

// Card type members for the default build. The generic "card" member is
// only part of the vocabulary under the paymentmethods_v2 tag; gating it
// at the member set keeps the decision at the construction boundary
// instead of inside the matching logic.
var cardTypeMembers = []string{
	"credit",
	"debit",
}
