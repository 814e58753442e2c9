package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy",
	Short: "Manage stored presentation hierarchies",
}

var hierarchyImportCmd = &cobra.Command{
	Use:   "import <company> <file>",
	Short: "Replace a company's stored hierarchy with the nodes in a JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := importHierarchy(cmd.Context(), st, args[0], args[1])
		if err != nil {
			return err
		}
		zap.L().Info("hierarchy import complete",
			zap.String("company", args[0]),
			zap.Int("nodes", n),
			zap.String("file", args[1]),
		)
		return nil
	},
}

var hierarchyShowCmd = &cobra.Command{
	Use:   "show <company>",
	Short: "List the stored hierarchy of a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		nodes, err := st.HierarchyNodes(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "hierarchy show")
		}
		if len(nodes) == 0 {
			fmt.Fprintln(os.Stderr, "No hierarchy stored.")
			return nil
		}
		formatHierarchy(os.Stdout, nodes)
		return nil
	},
}

type hierarchyWriter interface {
	SaveHierarchyNodes(ctx context.Context, company string, nodes []model.HierarchyNode) error
}

// importHierarchy reads a JSON array of nodes and stores it for company,
// replacing any previous hierarchy. Returns the number of nodes stored.
func importHierarchy(ctx context.Context, w hierarchyWriter, company, path string) (int, error) {
	if company == "" {
		return 0, eris.New("hierarchy: company is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "hierarchy: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	nodes, err := decodeHierarchy(f, company)
	if err != nil {
		return 0, eris.Wrapf(err, "hierarchy: %s", path)
	}
	if err := w.SaveHierarchyNodes(ctx, company, nodes); err != nil {
		return 0, eris.Wrap(err, "hierarchy: save nodes")
	}
	return len(nodes), nil
}

// decodeHierarchy parses nodes and stamps them with company. Every node
// needs a concept.
func decodeHierarchy(r io.Reader, company string) ([]model.HierarchyNode, error) {
	var nodes []model.HierarchyNode
	if err := json.NewDecoder(r).Decode(&nodes); err != nil {
		return nil, eris.Wrap(err, "decode nodes")
	}
	for i := range nodes {
		if nodes[i].Concept == "" {
			return nil, eris.Errorf("node %d has no concept", i)
		}
		nodes[i].Company = company
	}
	return nodes, nil
}

func formatHierarchy(out io.Writer, nodes []model.HierarchyNode) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONCEPT\tLEVEL\tORDER\tPARENT\tLABEL")
	for _, n := range nodes {
		fmt.Fprintf(w, "%s\t%d\t%g\t%s\t%s\n", n.Concept, n.Level, n.Order, n.ParentID, n.Label)
	}
	w.Flush() //nolint:errcheck
}

func init() {
	hierarchyCmd.AddCommand(hierarchyImportCmd)
	hierarchyCmd.AddCommand(hierarchyShowCmd)
	rootCmd.AddCommand(hierarchyCmd)
}
