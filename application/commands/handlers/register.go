package handlers

import (
	"go.uber.org/zap"

	"thoughtgraph/application/commands"
	"thoughtgraph/application/commands/bus"
)

// RegisterAll wires every command to its handler on b
func RegisterAll(b *bus.CommandBus, logger *zap.Logger) error {
	tags := NewTagHandler(logger)
	refs := NewReferenceHandler(logger)

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateThoughtCommand{}, NewCreateThoughtHandler(logger)},
		{commands.UpdateThoughtCommand{}, NewUpdateThoughtHandler(logger)},
		{commands.DeleteThoughtCommand{}, NewDeleteThoughtHandler(logger)},
		{commands.AddTagCommand{}, tags},
		{commands.DescribeTagCommand{}, tags},
		{commands.DeleteTagCommand{}, tags},
		{commands.AttachTagCommand{}, tags},
		{commands.DetachTagCommand{}, tags},
		{commands.AddReferenceCommand{}, refs},
		{commands.RemoveReferenceCommand{}, refs},
		{commands.RescanReferencesCommand{}, refs},
	}

	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
