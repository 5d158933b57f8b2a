package main

import (
	"fmt"
	"os"

	"precast-tracker/internal/usecase/scan"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newLabelCmd() *cobra.Command {
	var (
		baseURL string
		output  string
		size    int
	)

	cmd := &cobra.Command{
		Use:   "label <element-id>",
		Short: "Write the QR label of an element as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid element id %q: %w", args[0], err)
			}
			if output == "" {
				output = "element-" + id.String() + ".png"
			}

			png, err := scan.EncodeLabel(baseURL, id, size)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return fmt.Errorf("failed to write label: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", scan.LabelURL(baseURL, id), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "https://precast.local/e", "public scan prefix encoded in the label")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default element-<id>.png)")
	cmd.Flags().IntVar(&size, "size", scan.DefaultLabelSize, "image size in pixels")
	return cmd
}
