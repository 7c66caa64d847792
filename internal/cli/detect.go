package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/licverify/licverify/internal/textenc"
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect <input>",
	Short: "Show the detected encoding and delimiter of an input file",
	Long: `Runs only the format autodetection and prints the result, for checking
what a run would assume about a file before touching the registry.

Example:
  licverify detect drivers.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := textenc.DetectFormat(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("encoding:  %s\n", format.Encoding)
		fmt.Printf("delimiter: %q\n", format.Delimiter)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
