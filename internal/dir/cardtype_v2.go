//go:build paymentmethods_v2

package dir

// Card type members under the paymentmethods_v2 tag, which adds the
// generic "card" member alongside credit and debit.
var cardTypeMembers = []string{
	"credit",
	"debit",
	"card",
}
