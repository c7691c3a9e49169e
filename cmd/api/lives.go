package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

var livesCmd = &cobra.Command{
	Use:   "lives",
	Short: "Просмотр и сброс жизней пользователя",
}

var livesShowCmd = &cobra.Command{
	Use:   "show <user_id>",
	Short: "Показать текущие жизни пользователя",
	Args:  userIDArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		snapshot, err := newLivesService(a).GetCurrentLives(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), args[0], snapshot)
		return nil
	},
}

var livesResetCmd = &cobra.Command{
	Use:   "reset <user_id>",
	Short: "Восстановить пользователю полный запас жизней",
	Args:  userIDArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		snapshot, err := newLivesService(a).Reset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), args[0], snapshot)
		return nil
	},
}

func init() {
	livesCmd.AddCommand(livesShowCmd, livesResetCmd)
}

func userIDArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if _, err := uuid.Parse(args[0]); err != nil {
		return fmt.Errorf("user_id must be a valid UUID, got %q", args[0])
	}
	return nil
}

func printSnapshot(w io.Writer, userID string, s *entity.LivesSnapshot) {
	fmt.Fprintf(w, "user:          %s\n", userID)
	fmt.Fprintf(w, "lives:         %d/%d\n", s.CurrentLives, s.MaxLives)
	fmt.Fprintf(w, "stored:        %d (+%d refilled)\n", s.StoredLives, s.RefilledLives)
	if s.LastLifeLostAt != nil {
		fmt.Fprintf(w, "last lost at:  %s\n", entity.FormatTimestamp(*s.LastLifeLostAt))
	}
	if s.NextLifeAt != nil && s.SecondsToNextLife != nil {
		fmt.Fprintf(w, "next life at:  %s (in %ds)\n", entity.FormatTimestamp(*s.NextLifeAt), *s.SecondsToNextLife)
	}
}
