package config

import "github.com/Lasikiewicz/news-aggregator/internal/domain"

func defaultFeeds() []domain.FeedSource {
	return []domain.FeedSource{
		{URL: "http://www.pushsquare.com/feeds/latest", Category: "PlayStation"},
		{URL: "https://blog.playstation.com/feed/", Category: "PlayStation"},
		{URL: "https://www.gematsu.com/c/playstation-5/feed", Category: "PlayStation"},
		{URL: "https://www.purexbox.com/feeds/latest", Category: "Xbox"},
		{URL: "https://news.xbox.com/en-us/feed/", Category: "Xbox"},
		{URL: "https://www.nintendolife.com/feeds/latest", Category: "Nintendo"},
		{URL: "https://www.rockpapershotgun.com/feed", Category: "PC Gaming"},
		{URL: "https://www.pcgamer.com/rss/", Category: "PC Gaming"},
		{URL: "https://www.dsogaming.com/feed/", Category: "PC Gaming"},
		{URL: "https://toucharcade.com/feed", Category: "Mobile"},
		{URL: "https://www.droidgamers.com/feed/", Category: "Mobile"},
		{URL: "https://www.pocketgamer.com/rss/", Category: "Mobile"},
		{URL: "https://www.videogameschronicle.com/feed/", Category: "Multi-platform"},
		{URL: "https://www.eurogamer.net/feed/news", Category: "Multi-platform"},
		{URL: "https://www.gamespot.com/feeds/news/", Category: "Multi-platform"},
	}
}

func defaultPrompts() domain.Prompts {
	return domain.Prompts{
		Relevance: `Analyze the following title and snippet. Is the primary subject about video games, gaming hardware (like consoles or PC parts), gaming industry news, or official merchandise/books for a specific game? Respond with only "YES" or "NO". Do not classify general tech news, movie news, or unrelated product deals as "YES".

Title: "${title}"
Snippet: "${snippet}"`,
		Article: `You are a gaming news editor. Process an article summary and return a clean JSON object.
Instructions:
1. Generate Short Title: create a catchy, concise headline, 5-8 words long.
2. Rewrite Content: rewrite the provided text into an original, engaging blog post of at least 500 words. Format it in clean HTML using <p>, <h2>, <h3>, <ul>, and <li> tags.
3. Insert Images: from the provided imageList, weave the image URLs into the generated HTML content. Use the format <img src='URL_FROM_LIST' class='article-image' alt='A descriptive alt text'>.
4. Generate Tags: create a JSON array of 3-5 relevant string tags for the article.
5. Category: the article was pre-classified as "${category}" / "${subCategory}". Return "mainCategory" and "subCategory" only if you are confident they are better.
6. JSON Output: output ONLY a single, valid JSON object with the keys "title_short", "content", "tags" and optionally "mainCategory" and "subCategory". Do not include any other text.

Article Text:
Title: ${title}
Snippet: ${snippet}
Body: ${content}
imageList: ${imageList}`,
	}
}

func defaultCategories() []domain.CategoryKeywords {
	return []domain.CategoryKeywords{
		{
			Name: "PlayStation",
			SubCategories: []domain.SubCategoryKeyword{
				{Name: "PS5 Pro", Keywords: []string{"PS5 Pro", "PlayStation 5 Pro"}},
				{Name: "PS5", Keywords: []string{"PS5", "PlayStation 5"}},
				{Name: "PS VR2", Keywords: []string{"PS VR2", "PSVR2", "PlayStation VR2"}},
				{Name: "PlayStation Plus", Keywords: []string{"PlayStation Plus", "PS Plus"}},
				{Name: "PS4", Keywords: []string{"PS4", "PlayStation 4"}},
			},
		},
		{
			Name: "Xbox",
			SubCategories: []domain.SubCategoryKeyword{
				{Name: "Xbox Series X|S", Keywords: []string{"Xbox Series X", "Xbox Series S"}},
				{Name: "Game Pass", Keywords: []string{"Game Pass"}},
				{Name: "Xbox One", Keywords: []string{"Xbox One"}},
			},
		},
		{
			Name: "Nintendo",
			SubCategories: []domain.SubCategoryKeyword{
				{Name: "Switch 2", Keywords: []string{"Switch 2"}},
				{Name: "Switch", Keywords: []string{"Nintendo Switch", "Switch"}},
				{Name: "Nintendo Direct", Keywords: []string{"Nintendo Direct"}},
			},
		},
		{
			Name: "PC Gaming",
			SubCategories: []domain.SubCategoryKeyword{
				{Name: "Steam Deck", Keywords: []string{"Steam Deck"}},
				{Name: "Steam", Keywords: []string{"Steam"}},
				{Name: "Hardware", Keywords: []string{"GPU", "RTX", "Radeon", "graphics card"}},
			},
		},
		{
			Name: "Mobile",
			SubCategories: []domain.SubCategoryKeyword{
				{Name: "iOS", Keywords: []string{"iOS", "iPhone", "iPad", "Apple Arcade"}},
				{Name: "Android", Keywords: []string{"Android", "Google Play"}},
			},
		},
	}
}
