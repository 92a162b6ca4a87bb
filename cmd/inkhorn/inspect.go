package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/inkhorn/inkhorn/pkg/slm"
)

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Dump the container layout of a .slm model file",
		Flags: commonModelFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := slm.Open(modelPath)
			if err != nil {
				return fmt.Errorf("open %s: %w", modelPath, err)
			}
			defer func() { _ = f.Close() }()

			st, err := os.Stat(modelPath)
			if err != nil {
				return err
			}

			h := f.Header
			fmt.Printf("file:    %s (%s)\n", modelPath, humanize.IBytes(uint64(st.Size())))
			fmt.Printf("format:  SLM v%d.%d\n", h.Major, h.Minor)
			fmt.Printf("header:  %d bytes, %d sections, directory at 0x%x\n",
				h.HeaderSize, h.SectionCount, h.SectionDirOffset)
			fmt.Println("sections:")
			for i := range f.Sections {
				s := &f.Sections[i]
				fmt.Printf("  %-12s v%-2d offset=0x%-8x size=%s\n",
					sectionName(slm.SectionType(s.Type)), s.Version, s.Offset, humanize.IBytes(s.Size))
			}
			return nil
		},
	}
}

func sectionName(t slm.SectionType) string {
	switch t {
	case slm.SectionModelMeta:
		return "model-meta"
	case slm.SectionVocab:
		return "vocab"
	case slm.SectionTables:
		return "tables"
	default:
		return fmt.Sprintf("unknown-%d", t)
	}
}
