package book

// SampleBooks returns the ten catalog entries loaded by the seed command.
// Each call returns fresh slices.
func SampleBooks() []Book {
	return []Book{
		{
			Title:         "The Great Gatsby",
			Author:        "F. Scott Fitzgerald",
			Genre:         []string{"Fiction", "Classic"},
			PublishedYear: 1925,
			Publisher:     "Scribner",
			Pages:         218,
			Price:         12.99,
			Rating:        4.5,
			Reviews: []Review{
				{User: "reader1", Comment: "Timeless classic", Rating: 5},
				{User: "reader2", Comment: "Beautiful prose", Rating: 4},
			},
			InStock: true,
			Tags:    []string{"american", "jazz age", "tragedy"},
		},
		{
			Title:         "To Kill a Mockingbird",
			Author:        "Harper Lee",
			Genre:         []string{"Fiction", "Classic", "Coming-of-age"},
			PublishedYear: 1960,
			Publisher:     "J.B. Lippincott & Co.",
			Pages:         281,
			Price:         14.99,
			Rating:        4.8,
			Reviews: []Review{
				{User: "reader3", Comment: "Powerful story", Rating: 5},
				{User: "reader4", Comment: "Important social commentary", Rating: 5},
			},
			InStock: true,
			Tags:    []string{"southern", "racial injustice", "lawyer"},
		},
		{
			Title:         "1984",
			Author:        "George Orwell",
			Genre:         []string{"Fiction", "Dystopian", "Science Fiction"},
			PublishedYear: 1949,
			Publisher:     "Secker & Warburg",
			Pages:         328,
			Price:         11.99,
			Rating:        4.7,
			Reviews: []Review{
				{User: "reader5", Comment: "Chillingly accurate", Rating: 5},
				{User: "reader6", Comment: "Must-read", Rating: 4},
			},
			InStock: false,
			Tags:    []string{"dystopia", "surveillance", "political"},
		},
		{
			Title:         "Pride and Prejudice",
			Author:        "Jane Austen",
			Genre:         []string{"Fiction", "Romance", "Classic"},
			PublishedYear: 1813,
			Publisher:     "T. Egerton",
			Pages:         432,
			Price:         9.99,
			Rating:        4.6,
			Reviews: []Review{
				{User: "reader7", Comment: "Witty and charming", Rating: 5},
			},
			InStock: true,
			Tags:    []string{"british", "romance", "regency"},
		},
		{
			Title:         "The Hobbit",
			Author:        "J.R.R. Tolkien",
			Genre:         []string{"Fantasy", "Adventure"},
			PublishedYear: 1937,
			Publisher:     "George Allen & Unwin",
			Pages:         310,
			Price:         15.99,
			Rating:        4.9,
			Reviews: []Review{
				{User: "reader8", Comment: "Fantasy masterpiece", Rating: 5},
				{User: "reader9", Comment: "Great adventure", Rating: 5},
			},
			InStock: true,
			Tags:    []string{"middle-earth", "dragons", "quest"},
		},
		{
			Title:         "Harry Potter and the Philosopher's Stone",
			Author:        "J.K. Rowling",
			Genre:         []string{"Fantasy", "Young Adult"},
			PublishedYear: 1997,
			Publisher:     "Bloomsbury",
			Pages:         223,
			Price:         18.99,
			Rating:        4.9,
			Reviews: []Review{
				{User: "reader10", Comment: "Magical journey", Rating: 5},
				{User: "reader11", Comment: "Started it all", Rating: 5},
			},
			InStock: true,
			Tags:    []string{"wizard", "magic", "school"},
		},
		{
			Title:         "The Catcher in the Rye",
			Author:        "J.D. Salinger",
			Genre:         []string{"Fiction", "Coming-of-age"},
			PublishedYear: 1951,
			Publisher:     "Little, Brown and Company",
			Pages:         234,
			Price:         10.99,
			Rating:        4.2,
			Reviews: []Review{
				{User: "reader12", Comment: "Relatable protagonist", Rating: 4},
				{User: "reader13", Comment: "Overrated", Rating: 3},
			},
			InStock: false,
			Tags:    []string{"teenage", "rebellion", "new york"},
		},
		{
			Title:         "Brave New World",
			Author:        "Aldous Huxley",
			Genre:         []string{"Fiction", "Dystopian", "Science Fiction"},
			PublishedYear: 1932,
			Publisher:     "Chatto & Windus",
			Pages:         311,
			Price:         13.99,
			Rating:        4.4,
			Reviews: []Review{
				{User: "reader14", Comment: "Thought-provoking", Rating: 5},
			},
			InStock: true,
			Tags:    []string{"utopia", "technology", "society"},
		},
		{
			Title:         "The Lord of the Rings",
			Author:        "J.R.R. Tolkien",
			Genre:         []string{"Fantasy", "Adventure"},
			PublishedYear: 1954,
			Publisher:     "George Allen & Unwin",
			Pages:         1178,
			Price:         29.99,
			Rating:        4.95,
			Reviews: []Review{
				{User: "reader15", Comment: "Epic fantasy", Rating: 5},
				{User: "reader16", Comment: "The best", Rating: 5},
			},
			InStock: true,
			Tags:    []string{"middle-earth", "ring", "epic"},
		},
		{
			Title:         "Moby Dick",
			Author:        "Herman Melville",
			Genre:         []string{"Fiction", "Adventure", "Classic"},
			PublishedYear: 1851,
			Publisher:     "Richard Bentley",
			Pages:         635,
			Price:         16.99,
			Rating:        4.1,
			Reviews: []Review{
				{User: "reader17", Comment: "Long but rewarding", Rating: 4},
			},
			InStock: true,
			Tags:    []string{"whaling", "revenge", "sea"},
		},
	}
}
