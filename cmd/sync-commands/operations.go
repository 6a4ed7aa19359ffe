package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
)

func (a *app) scopeLabel() string {
	if a.guildID == "" {
		return "global"
	}
	return "servidor " + a.guildID
}

// list prints the commands registered remotely in the selected scope
func (a *app) list(ctx context.Context, out io.Writer) error {
	logger.Info(fmt.Sprintf("📋 Listando comandos (%s)...", a.scopeLabel()), prefix)

	cmds, err := a.api.ListCommands(ctx, a.guildID)
	if err != nil {
		return fmt.Errorf("listing commands: %w", err)
	}
	if len(cmds) == 0 {
		logger.Info("No hay comandos registrados", prefix)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIPO\tNOMBRE\tDESCRIPCIÓN")
	for _, cmd := range cmds {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", cmd.ID, cmd.Type, cmd.Name, cmd.Description)
	}
	return w.Flush()
}

// clean deletes every command registered in the selected scope, one by one
func (a *app) clean(ctx context.Context, _ io.Writer) error {
	logger.Info(fmt.Sprintf("🧹 Eliminando comandos (%s)...", a.scopeLabel()), prefix)

	cmds, err := a.api.ListCommands(ctx, a.guildID)
	if err != nil {
		return fmt.Errorf("listing commands: %w", err)
	}

	var result *multierror.Error
	for _, cmd := range cmds {
		if err := a.api.DeleteCommand(ctx, a.guildID, cmd.ID); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", cmd.Name, err))
			continue
		}
		logger.Debug(fmt.Sprintf("Eliminado /%s (%s)", cmd.Name, cmd.ID), prefix)
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	logger.Success(fmt.Sprintf("✅ %d comandos eliminados", len(cmds)), prefix)
	return nil
}

// sync uploads the defined commands to every scope they belong to
func (a *app) sync(ctx context.Context, _ io.Writer) error {
	logger.Info("🔄 Sincronizando comandos...", prefix)
	a.client.CommandHandler.WithArchive(a.archive)

	if err := a.client.CommandHandler.Sync(ctx); err != nil {
		return err
	}
	logger.Success(fmt.Sprintf("✅ %d comandos activos", len(a.client.Store.Live())), prefix)
	return nil
}

// dump prints the schemas an upload sends, grouped by scope
func (a *app) dump(_ context.Context, out io.Writer) error {
	scopes := map[string][]*discord.CommandSchema{
		"global": a.client.Store.Pending(discord.GlobalScope),
	}
	for _, scope := range a.client.Store.PendingScopes() {
		scopes[scope] = a.client.Store.Pending(scope)
	}

	data, err := discord.MarshalIndent(scopes)
	if err != nil {
		return fmt.Errorf("encoding schemas: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// history prints what the archive recorded for this application
func (a *app) history(ctx context.Context, out io.Writer) error {
	appID, err := a.api.ApplicationID(ctx)
	if err != nil {
		return err
	}
	records, err := a.archive.List(ctx, appID)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ÁMBITO\tNOMBRE\tID\tVERSIÓN\tREGISTRADO")
	for _, r := range records {
		scope := r.Scope
		if scope == discord.GlobalScope {
			scope = "global"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", scope, r.Name, r.CommandID, r.Version, humanize.Time(r.RegisteredAt))
	}
	return w.Flush()
}

// remoteSync asks the running bot over MQTT to upload its commands, so the
// ids it dispatches on stay current.
func (a *app) remoteSync(_ context.Context, out io.Writer) error {
	logger.Info("📡 Solicitando sincronización al bot...", prefix)

	mc := a.dial(a.cfg)
	defer mc.Destroy()

	data, err := mc.Request("sync", map[string]any{}, a.timeout)
	if err != nil {
		return fmt.Errorf("remote sync: %w", err)
	}
	if res, ok := data.(map[string]any); ok {
		_, err = fmt.Fprintf(out, "Comandos activos: %v\n", res["live"])
		return err
	}
	_, err = fmt.Fprintf(out, "%v\n", data)
	return err
}
