package cli

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/roach88/thisme/internal/identity"
	"github.com/roach88/thisme/internal/ir"
)

// IdentityView is the public face of an identity printed by create and show.
type IdentityView struct {
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
	ContextID string `json:"context_id"`
	CreatedAt string `json:"created_at"`
}

func newIdentityView(id *identity.Identity) IdentityView {
	return IdentityView{
		Username:  id.Username(),
		PublicKey: id.PublicKey(),
		ContextID: id.ContextID(),
		CreatedAt: id.CreatedAt(),
	}
}

func (v IdentityView) String() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "username:\t%s\n", v.Username)
	fmt.Fprintf(w, "public key:\t%s\n", v.PublicKey)
	fmt.Fprintf(w, "context:\t%s\n", v.ContextID)
	fmt.Fprintf(w, "created:\t%s", v.CreatedAt)
	w.Flush()
	return buf.String()
}

// IdentityList is printed by list.
type IdentityList []ir.IdentitySummary

func (l IdentityList) String() string {
	if len(l) == 0 {
		return "no identities"
	}
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tPUBLIC KEY\tCREATED")
	for _, s := range l {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Username, s.PublicKey, s.CreatedAt)
	}
	w.Flush()
	return trimNewline(buf.String())
}

// EntryList is printed by get and the verb commands.
type EntryList []ir.Entry

func (l EntryList) String() string {
	if len(l) == 0 {
		return "no entries"
	}
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tVERB\tKEY\tVALUE")
	for _, e := range l {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Verb, e.Key, e.Value)
	}
	w.Flush()
	return trimNewline(buf.String())
}

// Message is a one-line confirmation.
type Message struct {
	Message string `json:"message"`
}

func (m Message) String() string { return m.Message }

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		return s[:n-1]
	}
	return s
}
