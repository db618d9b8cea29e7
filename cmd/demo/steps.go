package main

import (
	"context"
	"fmt"
	"io"

	"bookstore/internal/book"
)

type step struct {
	section string
	name    string
	run     func(ctx context.Context) (string, error)
}

// runSteps runs every step, printing one PASS/FAIL line each, and returns the
// number of failures. A failing step does not stop the sequence.
func runSteps(ctx context.Context, w io.Writer, steps []step) int {
	failed := 0
	section := ""
	for _, s := range steps {
		if s.section != section {
			section = s.section
			fmt.Fprintf(w, "\n=== %s ===\n", section)
		}
		summary, err := s.run(ctx)
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %-28s %v\n", s.name, err)
			continue
		}
		fmt.Fprintf(w, "PASS %-28s %s\n", s.name, summary)
	}
	fmt.Fprintf(w, "\n%d/%d steps passed\n", len(steps)-failed, len(steps))
	return failed
}

func alchemist() book.Book {
	return book.Book{
		Title:         "The Alchemist",
		Author:        "Paulo Coelho",
		Genre:         []string{"Fiction", "Adventure", "Fantasy"},
		PublishedYear: 1988,
		Publisher:     "HarperCollins",
		Pages:         208,
		Price:         13.99,
		Rating:        4.7,
		Reviews:       []book.Review{{User: "reader18", Comment: "Inspiring journey", Rating: 5}},
		InStock:       true,
		Tags:          []string{"quest", "personal legend", "spiritual"},
	}
}

func demoSteps(svc *book.Service) []step {
	count := func(books []book.Book, err error) (string, error) {
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d book(s)", len(books)), nil
	}

	return []step{
		{"CRUD", "insert The Alchemist", func(ctx context.Context) (string, error) {
			id, err := svc.InsertBook(ctx, alchemist())
			return "id " + id, err
		}},
		{"CRUD", "books by J.R.R. Tolkien", func(ctx context.Context) (string, error) {
			return count(svc.FindBooksByAuthor(ctx, "J.R.R. Tolkien"))
		}},
		{"CRUD", "reprice The Great Gatsby", func(ctx context.Context) (string, error) {
			res, err := svc.UpdateBookPrice(ctx, "The Great Gatsby", 13.50)
			return fmt.Sprintf("modified %d", res.Modified), err
		}},
		{"CRUD", "review 1984", func(ctx context.Context) (string, error) {
			res, err := svc.AddBookReview(ctx, "1984", book.Review{User: "new_reader", Comment: "Still relevant today", Rating: 5})
			return fmt.Sprintf("modified %d", res.Modified), err
		}},

		{"Advanced queries", "published after 1950", func(ctx context.Context) (string, error) {
			return count(svc.FindBooksPublishedAfter(ctx, 1950))
		}},
		{"Advanced queries", "price between 10 and 15", func(ctx context.Context) (string, error) {
			return count(svc.FindBooksByPriceRange(ctx, 10, 15))
		}},
		{"Advanced queries", `title matches "the"`, func(ctx context.Context) (string, error) {
			return count(svc.FindBooksByTitlePattern(ctx, "the"))
		}},

		{"Aggregation", "books by genre", func(ctx context.Context) (string, error) {
			rows, err := svc.GetBooksCountByGenre(ctx)
			return fmt.Sprintf("%d genre(s)", len(rows)), err
		}},
		{"Aggregation", "overall statistics", func(ctx context.Context) (string, error) {
			st, err := svc.GetBookStatistics(ctx)
			return fmt.Sprintf("%d books, avg rating %.2f, price %.2f-%.2f", st.TotalBooks, st.AverageRating, st.MinPrice, st.MaxPrice), err
		}},
		{"Aggregation", "top 3 authors", func(ctx context.Context) (string, error) {
			rows, err := svc.GetPopularAuthors(ctx, 3)
			if err != nil || len(rows) == 0 {
				return fmt.Sprintf("%d author(s)", len(rows)), err
			}
			return fmt.Sprintf("%d author(s), first %s", len(rows), rows[0].Author), nil
		}},

		{"Indexing", "create indexes", func(ctx context.Context) (string, error) {
			names, err := svc.CreateIndexes(ctx)
			return fmt.Sprintf("%v", names), err
		}},
		{"Indexing", "explain top-rated filter", func(ctx context.Context) (string, error) {
			plan, err := svc.ExplainQuery(ctx)
			return fmt.Sprintf("%s winning stage %v", plan.Namespace, plan.WinningPlan["stage"]), err
		}},
	}
}
