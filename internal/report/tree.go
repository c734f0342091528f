package report

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/natashamoorfield/npm-npadb-admin/internal/lgro"
)

// PlanTree renders the resolved event as county, new district and old
// district levels.
func PlanTree(e *lgro.Event) (string, error) {
	root := pterm.TreeNode{Text: fmt.Sprintf("LGRO %d", e.Year)}
	for _, c := range e.Counties {
		cn := pterm.TreeNode{Text: countyLabel(c)}
		for _, nd := range c.NewDistricts {
			nn := pterm.TreeNode{Text: newDistrictLabel(nd)}
			for _, od := range nd.OldDistricts {
				nn.Children = append(nn.Children, pterm.TreeNode{Text: oldDistrictLabel(od)})
			}
			cn.Children = append(cn.Children, nn)
		}
		root.Children = append(root.Children, cn)
	}
	return pterm.DefaultTree.WithRoot(root).Srender()
}

// WritePlanTree writes PlanTree to w.
func (c *Console) WritePlanTree(e *lgro.Event) error {
	if c.quiet {
		return nil
	}
	tree, err := PlanTree(e)
	if err != nil {
		return err
	}
	_, err = io.WriteString(c.out, tree)
	return err
}

func countyLabel(c *lgro.County) string {
	if c.Err != nil {
		return fmt.Sprintf("%s: %s", c.Name, pterm.Red(lgro.FormatUserError(c.Err)))
	}
	return fmt.Sprintf("%s (county %d, next district %d)", c.Name, c.ID, c.NextDistrictID)
}

func newDistrictLabel(nd *lgro.NewDistrict) string {
	id := nd.ID
	if id == 0 {
		id = nd.PlannedID
	}
	label := fmt.Sprintf("%s [%s] type %d", nd.Name, stateText(nd.State), nd.DistrictType)
	if id != 0 {
		label = fmt.Sprintf("%s (%d) [%s] type %d", nd.Name, id, stateText(nd.State), nd.DistrictType)
	}
	if nd.Err != nil {
		label += ": " + lgro.FormatUserError(nd.Err)
	}
	return label
}

func oldDistrictLabel(od *lgro.OldDistrict) string {
	label := fmt.Sprintf("%s [%s]", od.Name, stateText(od.State))
	if od.ID != 0 {
		label = fmt.Sprintf("%s (%d) [%s]", od.Name, od.ID, stateText(od.State))
	}
	if od.Err != nil {
		label += ": " + lgro.FormatUserError(od.Err)
	}
	return label
}

func stateText(s lgro.State) string {
	switch s {
	case lgro.StateCreated, lgro.StateExisting, lgro.StateAbolished, lgro.StateResolved:
		return pterm.Green(string(s))
	case lgro.StateSkipped, lgro.StatePending:
		return pterm.Yellow(string(s))
	case lgro.StateResolutionFailed, lgro.StateCreationFailed, lgro.StateAbolitionFailed:
		return pterm.Red(string(s))
	default:
		return string(s)
	}
}
