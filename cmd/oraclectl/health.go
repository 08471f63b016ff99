package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tdex-network/oracle-dispatcher/pkg/httputil"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v2"
)

var errNotHealthy = errors.New("dispatcher is not healthy")

var health = cli.Command{
	Name:  "health",
	Usage: "print the heartbeats of a running dispatcher",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "url",
			Usage: "the base url of the dispatcher health interface",
			Value: "http://localhost:3000",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "the request timeout",
			Value: 10 * time.Second,
		},
	},
	Action: healthAction,
}

func healthAction(ctx *cli.Context) error {
	endpoint := strings.TrimSuffix(ctx.String("url"), "/") + "/health"
	client := httputil.NewClient(ctx.Duration("timeout"))

	status, body, err := client.Get(context.Background(), endpoint, nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusServiceUnavailable {
		return httputil.CheckStatus(status, body)
	}
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("invalid response body: %s", body)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "\t"); err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, out.String())

	if status != http.StatusOK || !gjson.GetBytes(body, "alive").Bool() {
		return errNotHealthy
	}
	return nil
}
