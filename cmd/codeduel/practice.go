package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/problems"
	"github.com/verte-zerg/codeduel/internal/stats"
)

var (
	practiceSearch     string
	practiceDifficulty string
	practiceTopic      string
	practiceLanguage   string
	practiceTopics     bool
	practiceOpen       bool

	updateUsername          string
	updateFullName          string
	updateCollege           string
	updateBio               string
	updatePreferredLanguage string
	updateGithub            string
	updateProfilePic        string
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile and rank progress",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			if err := a.session.Guard(); err != nil {
				return err
			}
			p, err := a.profile.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}
			return stats.RenderProfile(os.Stdout, p)
		}),
	}
	cmd.AddCommand(newProfileUpdateCmd())
	return cmd
}

func newProfileUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit profile fields",
		Args:  cobra.NoArgs,
		RunE:  withApp(runProfileUpdateCmd),
	}
	cmd.Flags().StringVar(&updateUsername, "username", "", "username")
	cmd.Flags().StringVar(&updateFullName, "fullname", "", "full name")
	cmd.Flags().StringVar(&updateCollege, "college", "", "college")
	cmd.Flags().StringVar(&updateBio, "bio", "", "short bio")
	cmd.Flags().StringVar(&updatePreferredLanguage, "preferred-language", "", "preferred language")
	cmd.Flags().StringVar(&updateGithub, "github", "", "GitHub profile")
	cmd.Flags().StringVar(&updateProfilePic, "profile-pic", "", "profile picture URL")
	return cmd
}

func runProfileUpdateCmd(cmd *cobra.Command, _ []string, a *app) error {
	if err := a.session.Guard(); err != nil {
		return err
	}
	update := model.ProfileUpdate{
		Username:          optionalStringFlag(cmd, "username", updateUsername),
		FullName:          optionalStringFlag(cmd, "fullname", updateFullName),
		College:           optionalStringFlag(cmd, "college", updateCollege),
		Bio:               optionalStringFlag(cmd, "bio", updateBio),
		PreferredLanguage: optionalStringFlag(cmd, "preferred-language", updatePreferredLanguage),
		Github:            optionalStringFlag(cmd, "github", updateGithub),
		ProfilePic:        optionalStringFlag(cmd, "profile-pic", updateProfilePic),
	}
	if update == (model.ProfileUpdate{}) {
		return errors.New("nothing to update: pass at least one field flag")
	}
	p, err := a.profile.Update(cmd.Context(), update)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	fmt.Println("Profile updated")
	return stats.RenderProfile(os.Stdout, p)
}

func newPracticeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "List practice problems",
		Args:  cobra.NoArgs,
		RunE:  withApp(runPracticeCmd),
	}
	addFilterFlags(cmd)
	cmd.Flags().BoolVar(&practiceTopics, "topics", false, "list available topics and exit")

	random := &cobra.Command{
		Use:   "random",
		Short: "Pick a random unsolved problem",
		Args:  cobra.NoArgs,
		RunE:  withApp(runPracticeRandomCmd),
	}
	addFilterFlags(random)
	random.Flags().BoolVar(&practiceOpen, "open", false, "open the picked problem in the arena")
	cmd.AddCommand(random)
	return cmd
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&practiceSearch, "search", "", "title substring")
	cmd.Flags().StringVar(&practiceDifficulty, "difficulty", problems.FilterAll, "Easy, Medium, Hard or All")
	cmd.Flags().StringVar(&practiceTopic, "topic", problems.FilterAll, "topic or All")
	cmd.Flags().StringVar(&practiceLanguage, "language-tag", problems.FilterAll, "problem language tag or All")
}

func practiceFilter() problems.Filter {
	return problems.Filter{
		Search:     practiceSearch,
		Difficulty: practiceDifficulty,
		Topic:      practiceTopic,
		Language:   practiceLanguage,
	}
}

// loadPractice fetches the catalog and the solved set.
func loadPractice(cmd *cobra.Command, a *app) ([]model.Problem, map[model.ID]bool, error) {
	if err := a.session.Guard(); err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if err := a.catalog.FetchAll(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to load problems: %w", err)
	}
	if err := a.loadSolved(ctx); err != nil {
		return nil, nil, err
	}
	return a.catalog.List(), a.solved.IDs(), nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string, a *app) error {
	list, solvedIDs, err := loadPractice(cmd, a)
	if err != nil {
		return err
	}
	if practiceTopics {
		for _, topic := range problems.Topics(list) {
			fmt.Println(topic)
		}
		return nil
	}

	if err := stats.RenderProgress(os.Stdout, problems.Progress(list, solvedIDs)); err != nil {
		return err
	}
	fmt.Println()
	return stats.RenderProblems(os.Stdout, practiceFilter().Apply(list), solvedIDs, stats.TerminalWidth(os.Stdout))
}

func runPracticeRandomCmd(cmd *cobra.Command, _ []string, a *app) error {
	list, solvedIDs, err := loadPractice(cmd, a)
	if err != nil {
		return err
	}
	picked, err := problems.NewPicker().Random(practiceFilter().Apply(list), solvedIDs)
	if err != nil {
		return err
	}
	ref := picked.ID.String()
	if practiceOpen {
		return runSolo(cmd, a, ref)
	}
	fmt.Printf("%s  %s  [%s]\n", ref, picked.Title, picked.Difficulty)
	if stats.IsTerminal(os.Stdout) {
		fmt.Printf("Open it with: codeduel solve %s\n", problems.Slug(picked))
	}
	return nil
}
