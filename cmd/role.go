package cmd

import (
	"context"
	"fmt"
	"strings"

	"event-management/internal/schema"
	"event-management/internal/services"
	"event-management/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"
)

func newRoleCommand(app core.App) *cobra.Command {
	return &cobra.Command{
		Use:   "role <email> <VISITOR|EDITOR|ADMIN>",
		Short: "Sets the role of an existing user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := models.Role(strings.ToUpper(args[1]))
			if !role.Valid() {
				return fmt.Errorf("invalid role %q, expected one of VISITOR, EDITOR, ADMIN", args[1])
			}

			if err := schema.EnsureUserFields(app); err != nil {
				return err
			}

			user, err := services.NewUserService(app).SetRole(context.Background(), args[0], role)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.Email, user.ID, user.Role)
			return nil
		},
	}
}
