package generator

import (
	"fmt"

	"linkedin-news-bot/news"
)

// Hand-written post templates used when generation is unavailable.
// Placeholders, in order: title, source, link.
var fallbackPostTemplates = []string{
	`Another signal that the AI landscape keeps shifting 🤔

Just read that %s. Coming from %s, this feels worth a closer look — developments like this tend to ripple through the whole field faster than expected.

What strikes me is how quickly capabilities that seemed experimental become table stakes. Teams that track these shifts early usually end up with a real head start.

How do you see this affecting the tools you rely on day to day?

%s

#ArtificialIntelligence #MachineLearning #TechTrends`,

	`Caught this today and it stuck with me: %s 👀

%s has the details, and the more I think about it, the more it feels like one of those announcements we'll point back to later.

In my experience, the gap between "research result" and "thing my team uses every week" keeps shrinking. That pace is exciting and a little unnerving at the same time.

If this holds up, what would you build with it first?

%s

#AI #Innovation #FutureOfWork`,

	`The AI news cycle never slows down — %s

I've been following coverage from %s on this, and the interesting part isn't just the headline. It's what it signals about where the major players are placing their bets.

Every one of these moves reshapes the competitive map a little. Worth keeping an eye on who responds next.

What's your read — incremental step or genuine shift?

%s

#AIStrategy #TechNews #EmergingTech`,
}

var fallbackReplyTemplates = []string{
	"Thanks for weighing in! That's a fair point — this space moves fast and perspectives like yours are exactly why I share these.",
	"Appreciate the comment! I had a similar reaction when I first read it. Curious to see how this plays out over the next few months.",
	"Great point, thanks for reading. There's definitely more nuance here than the headline suggests — always happy to dig deeper.",
}

// FallbackPost returns one of the static post templates with the article's
// title, source, and link substituted in.
func (g *Generator) FallbackPost(article news.Article) string {
	source := article.Source
	if source == "" {
		source = "a source"
	}

	g.mu.Lock()
	tmpl := fallbackPostTemplates[g.rng.Intn(len(fallbackPostTemplates))]
	g.mu.Unlock()

	return fmt.Sprintf(tmpl, article.Title, source, article.Link)
}

func (g *Generator) fallbackReply() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fallbackReplyTemplates[g.rng.Intn(len(fallbackReplyTemplates))]
}

// FallbackPostTemplates exposes the raw template set for tests.
func FallbackPostTemplates() []string {
	return fallbackPostTemplates
}

// FallbackReplyTemplates exposes the raw reply template set for tests.
func FallbackReplyTemplates() []string {
	return fallbackReplyTemplates
}
