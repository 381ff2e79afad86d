package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/timertimertimer/kfudao/internal/usecase"
)

// AccountOutput is the machine readable shape of the session
type AccountOutput struct {
	Email            string `json:"email,omitempty" yaml:"email,omitempty"`
	Institute        string `json:"institute,omitempty" yaml:"institute,omitempty"`
	Faculty          string `json:"faculty,omitempty" yaml:"faculty,omitempty"`
	BoundAddress     string `json:"boundAddress,omitempty" yaml:"boundAddress,omitempty"`
	WalletConnected  bool   `json:"walletConnected" yaml:"walletConnected"`
	ConnectedAddress string `json:"connectedAddress,omitempty" yaml:"connectedAddress,omitempty"`
	Binding          string `json:"binding" yaml:"binding"`
}

// NewAccountOutput flattens a session snapshot
func NewAccountOutput(state usecase.SessionState, binding usecase.BindingStatus) AccountOutput {
	out := AccountOutput{
		WalletConnected:  state.WalletConnected,
		ConnectedAddress: state.ConnectedAddress,
		Binding:          string(binding),
	}
	if state.Account != nil {
		out.Email = state.Account.Email
		out.Institute = state.Account.Institute
		out.Faculty = state.Account.Faculty
		out.BoundAddress = state.Account.Address
	}
	return out
}

// AccountRenderer renders the signed-in account
type AccountRenderer struct {
	out io.Writer
}

// NewAccountRenderer creates a new account renderer
func NewAccountRenderer(out io.Writer) *AccountRenderer {
	return &AccountRenderer{out: out}
}

// RenderAccount renders the session and wallet binding
func (r *AccountRenderer) RenderAccount(state usecase.SessionState, binding usecase.BindingStatus) error {
	if !state.Authenticated() {
		fmt.Fprintln(r.out, "Not signed in")
		return nil
	}

	a := state.Account
	headerStyle.Fprintln(r.out, a.Email)
	if a.Institute != "" {
		fmt.Fprintf(r.out, "  Institute:  %s (%s)\n", a.Institute, a.InstituteAbbreviation)
	}
	if a.Faculty != "" {
		fmt.Fprintf(r.out, "  Faculty:    %s\n", a.Faculty)
	}
	if a.HasAddress() {
		fmt.Fprintf(r.out, "  Wallet:     %s\n", addressStyle.Sprint(a.Address))
	} else {
		fmt.Fprintf(r.out, "  Wallet:     %s\n", color.New(color.Faint).Sprint("not bound"))
	}

	switch binding {
	case usecase.BindingUnbound:
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Connected wallet %s is not bound. Run `kfudao account bind`.", state.ConnectedAddress)))
	case usecase.BindingMismatch:
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Connected wallet %s differs from the bound address %s.", state.ConnectedAddress, a.Address)))
	case usecase.BindingBound:
		fmt.Fprintln(r.out, FormatSuccess("Connected wallet matches the bound address"))
	}
	return nil
}
