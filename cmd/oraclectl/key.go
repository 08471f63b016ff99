package main

import (
	"fmt"

	"github.com/tdex-network/oracle-dispatcher/pkg/signer"
	"github.com/urfave/cli/v2"
)

var address = cli.Command{
	Name:  "address",
	Usage: "print the operator address derived from a seed",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "seed",
			Usage:   "the operator key as 64 hex chars, or a secret phrase",
			EnvVars: []string{"ORACLE_SEED"},
		},
	},
	Action: addressAction,
}

var genkey = cli.Command{
	Name:   "genkey",
	Usage:  "generate a new operator key",
	Action: genKeyAction,
}

func addressAction(ctx *cli.Context) error {
	seed := ctx.String("seed")
	if seed == "" {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	s, err := signer.NewFromSeed(seed)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.App.Writer, s.Address())
	return nil
}

func genKeyAction(ctx *cli.Context) error {
	s, err := signer.Generate()
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "seed: %s\naddress: %s\n", s.PrivateKeyHex(), s.Address())
	return nil
}
