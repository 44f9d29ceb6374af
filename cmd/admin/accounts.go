package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/digishe/digishe/internal/phone"
)

type activateCmd struct {
	phone string
	off   bool
}

func (*activateCmd) Name() string     { return "activate" }
func (*activateCmd) Synopsis() string { return "activate or deactivate the business owned by a phone number" }
func (*activateCmd) Usage() string {
	return `admin activate -phone <number> [-off]

  Allows the owner's business to record entries and savings. With -off the
  business is deactivated instead.
`
}

func (a *activateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&a.phone, "phone", "", "Owner phone number, local or international format.")
	f.BoolVar(&a.off, "off", false, "Deactivate instead of activate.")
}

func (a *activateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if a.phone == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.close()

	_, b, err := e.owned(ctx, a.phone)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	b, err = e.businesses.SetActive(ctx, b.ID, !a.off)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s (%s) active=%t\n", b.Name, b.ID, b.IsActive)
	return subcommands.ExitSuccess
}

type promoteCmd struct {
	phone  string
	revoke bool
}

func (*promoteCmd) Name() string     { return "promote" }
func (*promoteCmd) Synopsis() string { return "grant admin rights to an identity" }
func (*promoteCmd) Usage() string {
	return `admin promote -phone <number> [-revoke]

  Grants admin rights. Existing sessions pick the change up on their next
  request.
`
}

func (p *promoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.phone, "phone", "", "Identity phone number, local or international format.")
	f.BoolVar(&p.revoke, "revoke", false, "Revoke admin rights instead.")
}

func (p *promoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.phone == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.close()

	canonical, err := phone.Normalize(p.phone, e.cfg.CountryPrefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	user, err := e.identities.SetAdmin(ctx, canonical, !p.revoke)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s (%s) admin=%t\n", user.Name, user.Phone, user.IsAdmin)
	return subcommands.ExitSuccess
}
