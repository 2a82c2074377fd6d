package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nerrad567/blescan-node/internal/coordinator"
	"github.com/nerrad567/blescan-node/internal/settings"
)

// ProvisionCmd writes one slot with the same rules as a BLE provisioning write.
type ProvisionCmd struct {
	Slot  string `arg:"" enum:"ssid,password,broker,board_name" help:"Slot to write (ssid, password, broker, board_name)"`
	Value string `arg:"" help:"Value to store; broker values are prefixed with mqtt://"`
}

// Run is invoked by kong for "blescan provision".
func (p *ProvisionCmd) Run(ctx context.Context, cli *CLI, out io.Writer) error {
	slot, err := coordinator.ParseSlot(p.Slot)
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Nothing to flush on close

	stored, err := coordinator.ApplyWrite(ctx, settings.NewSQLiteStore(db.DB), slot, p.Value)
	if err != nil {
		return err
	}
	log.Info("provisioning slot written", "slot", string(slot), "path", db.Path())

	shown := stored
	if slot == coordinator.SlotPassword {
		shown = maskSecret(stored)
	}
	fmt.Fprintf(out, "%s = %s\n", slot, shown)
	return nil
}

// ConfigCmd prints the provisioned record.
type ConfigCmd struct{}

// Run is invoked by kong for "blescan config".
func (c *ConfigCmd) Run(ctx context.Context, cli *CLI, out io.Writer) error {
	cfg, log, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Nothing to flush on close

	printRecord(out, settings.Load(ctx, settings.NewSQLiteStore(db.DB), log))
	return nil
}

// printRecord writes rec with the secret masked.
func printRecord(out io.Writer, rec settings.Record) {
	fmt.Fprintf(out, "%-10s %s\n", settings.KeySSID, rec.SSID)
	fmt.Fprintf(out, "%-10s %s\n", settings.KeyPassword, maskSecret(rec.Password))
	fmt.Fprintf(out, "%-10s %s\n", settings.KeyBroker, rec.BrokerURI)
	fmt.Fprintf(out, "%-10s %s\n", settings.KeyBoardName, rec.BoardName)
}

// maskSecret hides a secret but keeps its length visible.
func maskSecret(secret string) string {
	if secret == "" {
		return "(none)"
	}
	return strings.Repeat("*", len(secret))
}
