// Package bank is the typed client for the expense service's public API:
// identity registration and login, and CRUD on expense records. It knows the
// wire formats and the service's quirks (notably its inconsistent echoing of
// record identifiers) but contains no scenario logic.
package bank

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Identity is an email/password pair. It is created once per scenario and
// owned exclusively by that scenario; concurrent scenarios must never share
// a generated identity.
type Identity struct {
	Email    string
	Password string
}

// defaultPassword is used for generated identities. It only has to satisfy
// the service's minimum-length rule; the accounts are throwaway.
const defaultPassword = "pass1234"

// NewIdentity returns a fresh identity whose email carries a random suffix,
// so that concurrent scenarios cannot collide on registration.
func NewIdentity(prefix, domain string) Identity {
	return Identity{
		Email:    fmt.Sprintf("%s+%s@%s", prefix, uuid.NewString()[:8], domain),
		Password: defaultPassword,
	}
}

// AuthToken is the opaque bearer credential returned by login. Its expiry is
// server-controlled and unknown to the harness.
type AuthToken string

// Direction says whether money moved into or out of the account.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// ExpenseRecord holds the caller-supplied fields of an expense. The
// CorrelationID is chosen by the caller before create; the service may or
// may not echo it back as the record's identifier, so equality of records is
// always judged on the field tuple, never on identifiers.
type ExpenseRecord struct {
	CorrelationID string
	Type          string
	Amount        string
	Direction     Direction
	Location      string
	Product       string
}

// NewExpenseRecord builds a record with a generated correlation key.
func NewExpenseRecord(typ, amount string, direction Direction, location, product string) ExpenseRecord {
	return ExpenseRecord{
		CorrelationID: uuid.NewString(),
		Type:          typ,
		Amount:        amount,
		Direction:     direction,
		Location:      location,
		Product:       product,
	}
}

// SameFields reports whether two records match on every caller-supplied
// field. This is the membership test used when verifying list contents.
func (r ExpenseRecord) SameFields(other ExpenseRecord) bool {
	return r.Type == other.Type &&
		r.Amount == other.Amount &&
		r.Direction == other.Direction &&
		r.Location == other.Location &&
		r.Product == other.Product
}

// ServerID is whatever identifier the service assigned to a record. The
// service is inconsistent about its shape: sometimes it echoes the string
// correlation key, sometimes a JSON number of its own. ServerID absorbs
// either and renders a usable URL path segment.
type ServerID struct {
	value ldvalue.Value
}

// ServerIDFromString wraps a caller-side identifier, used as a fallback when
// the service did not return an id of its own.
func ServerIDFromString(s string) ServerID {
	return ServerID{value: ldvalue.String(s)}
}

func serverIDFromValue(v ldvalue.Value) ServerID {
	return ServerID{value: v}
}

// IsDefined reports whether the service actually returned an identifier.
func (id ServerID) IsDefined() bool {
	return !id.value.IsNull()
}

// String renders the identifier for use in a URL path. Numeric identifiers
// are rendered without a fractional part.
func (id ServerID) String() string {
	switch id.value.Type() {
	case ldvalue.StringType:
		return id.value.StringValue()
	case ldvalue.NumberType:
		return strconv.FormatFloat(id.value.Float64Value(), 'f', -1, 64)
	default:
		return ""
	}
}

// ListedExpense is one element of the service's list response: the domain
// fields plus whichever identifier the service chose to expose.
type ListedExpense struct {
	ID        ServerID
	Type      string
	Amount    string
	Direction Direction
	Location  string
	Product   string
}

// Fields returns the record's caller-visible fields for tuple matching.
func (e ListedExpense) Fields() ExpenseRecord {
	return ExpenseRecord{
		Type:      e.Type,
		Amount:    e.Amount,
		Direction: e.Direction,
		Location:  e.Location,
		Product:   e.Product,
	}
}
