// ABOUTME: GraphViz rendering of the contact book
// ABOUTME: Produces DOT for owner and company groupings with nodes coloured by lead status
package viz

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/models"
)

type GraphGenerator struct {
	db *sql.DB
}

func NewGraphGenerator(database *sql.DB) *GraphGenerator {
	return &GraphGenerator{db: database}
}

var statusColors = map[models.LeadStatus]string{
	models.LeadStatusNewLead:     "lightyellow",
	models.LeadStatusQualified:   "lightblue",
	models.LeadStatusCustomer:    "lightgreen",
	models.LeadStatusUnqualified: "lightgrey",
}

// GenerateOwnerGraph links each owner to the contacts they own.
func (g *GraphGenerator) GenerateOwnerGraph() (string, error) {
	return g.render("Contacts by Owner", "owns", func(c models.Contact) string {
		if c.Owner == "" {
			return "Unassigned"
		}
		return c.Owner
	})
}

// GenerateCompanyGraph links each company to the contacts working there.
func (g *GraphGenerator) GenerateCompanyGraph() (string, error) {
	return g.render("Contacts by Company", "works at", func(c models.Contact) string {
		if c.Company == "" {
			return "No Company"
		}
		return c.Company
	})
}

func (g *GraphGenerator) render(title, edgeLabel string, groupOf func(models.Contact) string) (string, error) {
	contacts, err := db.ListContacts(g.db)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch contacts")
	}

	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to create graphviz")
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", errors.Wrap(err, "failed to create graph")
	}
	defer graph.Close()

	graph.SetLabel(title)
	graph.SetRankDir(cgraph.LRRank)

	groups := make(map[string]*cgraph.Node)
	for _, contact := range contacts {
		group := groupOf(contact)
		groupNode, ok := groups[group]
		if !ok {
			groupNode, err = graph.CreateNodeByName(fmt.Sprintf("group_%d", len(groups)))
			if err != nil {
				return "", errors.Wrap(err, "failed to create group node")
			}
			groupNode.SetLabel(group)
			groupNode.SetShape("box")
			groupNode.SetStyle("filled")
			groupNode.SetFillColor("white")
			groups[group] = groupNode
		}

		node, err := graph.CreateNodeByName(fmt.Sprintf("contact_%d", contact.ID))
		if err != nil {
			return "", errors.Wrap(err, "failed to create contact node")
		}
		node.SetLabel(fmt.Sprintf("%s\n%s", contact.Name, contact.LeadStatus))
		node.SetShape("ellipse")
		node.SetStyle("filled")
		color, ok := statusColors[contact.LeadStatus]
		if !ok {
			color = "white"
		}
		node.SetFillColor(color)

		edge, err := graph.CreateEdgeByName(fmt.Sprintf("edge_%d", contact.ID), groupNode, node)
		if err != nil {
			return "", errors.Wrap(err, "failed to create edge")
		}
		edge.SetLabel(edgeLabel)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", errors.Wrap(err, "failed to render graph")
	}

	return buf.String(), nil
}
