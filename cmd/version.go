package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haveachin/slping/pkg/slping/protocol"
)

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Shows the version of the program",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Printf("%s (minecraft %s, protocol %d)\n",
				version,
				protocol.DefaultVersion.Name(),
				protocol.DefaultVersion.ProtocolNumber(),
			)
			return nil
		},
	}
)
