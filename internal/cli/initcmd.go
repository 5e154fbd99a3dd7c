package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iterflow/iterflow/internal/state"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize iterflow in the current directory",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func runInit(_ *cobra.Command, _ []string) error {
	_, store, err := loadEnv()
	if err != nil {
		return err
	}
	if store.Exists() {
		return fmt.Errorf("already initialized: state file exists at %s", store.Path())
	}

	it := state.New("0001")
	if err := store.Save(it); err != nil {
		return err
	}
	fmt.Printf("Initialized iteration %s at %s. Run `iterflow flow` to begin.\n", it.CurrentIteration, store.Path())
	return nil
}
