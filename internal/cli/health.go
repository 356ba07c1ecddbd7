package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/utafrali/storefront/pkg/health"
)

func (c *CLI) healthCheck(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	rep := c.health.Run(ctx)

	tw := c.table()
	fmt.Fprintln(tw, "CHECK\tSTATUS\tLATENCY\tERROR")
	for _, r := range rep.Checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Status, r.Latency.Round(time.Microsecond), r.Error)
	}
	_ = tw.Flush()
	fmt.Fprintf(c.out, "Overall: %s\n", rep.Status)

	if rep.Status == health.StatusDown {
		return fmt.Errorf("storefront backend is %s", rep.Status)
	}
	return nil
}
