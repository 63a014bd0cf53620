package github

import (
	"context"
	"fmt"

	"github.com/shurcooL/githubv4"
)

// AddProjectV2ItemMutation adds an issue or pull request to a Projects V2 board.
type AddProjectV2ItemMutation struct {
	AddProjectV2ItemById struct {
		Item struct {
			ID githubv4.ID
		}
	} `graphql:"addProjectV2ItemById(input: $input)"`
}

// UpdateProjectV2ItemFieldMutation sets one field of a board item.
type UpdateProjectV2ItemFieldMutation struct {
	UpdateProjectV2ItemFieldValue struct {
		ProjectV2Item struct {
			ID githubv4.ID
		}
	} `graphql:"updateProjectV2ItemFieldValue(input: $input)"`
}

// AddProjectItem adds the content node to the project and returns the new item
// ID. Adding content that is already on the board returns the existing item.
func (c *Client) AddProjectItem(ctx context.Context, projectID, contentID string) (string, error) {
	var m AddProjectV2ItemMutation
	input := githubv4.AddProjectV2ItemByIdInput{
		ProjectID: githubv4.ID(projectID),
		ContentID: githubv4.ID(contentID),
	}
	err := c.mutate(ctx, "add project item", func() error {
		return c.GraphQL.Mutate(ctx, &m, input, nil)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprint(m.AddProjectV2ItemById.Item.ID), nil
}

// SetProjectItemText sets a text field on a board item.
func (c *Client) SetProjectItemText(ctx context.Context, projectID, itemID, fieldID, value string) error {
	var m UpdateProjectV2ItemFieldMutation
	input := githubv4.UpdateProjectV2ItemFieldValueInput{
		ProjectID: githubv4.ID(projectID),
		ItemID:    githubv4.ID(itemID),
		FieldID:   githubv4.ID(fieldID),
		Value: githubv4.ProjectV2FieldValue{
			Text: githubv4.NewString(githubv4.String(value)),
		},
	}
	return c.mutate(ctx, "update project item field", func() error {
		return c.GraphQL.Mutate(ctx, &m, input, nil)
	})
}
