package client

import (
	"context"
	"strings"
)

const (
	cmdConfigureCheck = "configure check"
	cmdConfigure      = "configure"

	configOK     = "Configuration OK"
	reconfigured = "Reconfigured"
)

// ConfigureCheck asks bird to parse its configuration files without applying
// them. A failed check is reported as false with bird's reply, not as an
// error.
func (c *Client) ConfigureCheck(ctx context.Context) (bool, string, error) {
	reply, err := c.SendCommand(ctx, cmdConfigureCheck)
	if err != nil {
		return false, "", err
	}
	ok := strings.Contains(reply, configOK)
	if !ok {
		c.log.WithField("reply", strings.TrimSpace(reply)).Warn("configuration check failed")
	}
	return ok, reply, nil
}

// Configure checks the configuration and only reloads bird when the check
// passed. The returned text is the reply to whichever command ran last.
func (c *Client) Configure(ctx context.Context) (bool, string, error) {
	ok, reply, err := c.ConfigureCheck(ctx)
	if err != nil || !ok {
		return false, reply, err
	}
	reply, err = c.SendCommand(ctx, cmdConfigure)
	if err != nil {
		return false, "", err
	}
	ok = strings.Contains(reply, reconfigured)
	if ok {
		c.log.Info("bird reconfigured")
	} else {
		c.log.WithField("reply", strings.TrimSpace(reply)).Warn("reconfigure failed")
	}
	return ok, reply, nil
}
