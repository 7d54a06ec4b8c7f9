package analysis

var englishStopwords = toSet(
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any",
	"are", "aren't", "as", "at", "be", "because", "been", "before", "being", "below", "between",
	"both", "but", "by", "can", "cannot", "could", "did", "didn't", "do", "does", "doesn't",
	"doing", "don't", "down", "during", "each", "either", "else", "etc", "ever", "every", "few",
	"for", "from", "further", "get", "gets", "got", "had", "has", "hasn't", "have", "haven't",
	"having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how", "however",
	"i", "i'm", "if", "in", "into", "is", "isn't", "it", "it's", "its", "itself", "just", "let",
	"like", "many", "may", "me", "might", "more", "most", "much", "must", "my", "myself", "no",
	"nor", "not", "now", "of", "off", "on", "once", "one", "only", "or", "other", "our", "ours",
	"ourselves", "out", "over", "own", "per", "please", "same", "shall", "she", "should", "so",
	"some", "such", "than", "that", "that's", "the", "their", "theirs", "them", "themselves",
	"then", "there", "there's", "these", "they", "this", "those", "through", "to", "too", "under",
	"until", "up", "upon", "us", "very", "via", "was", "wasn't", "we", "were", "weren't", "what",
	"when", "where", "whether", "which", "while", "who", "whom", "whose", "why", "will", "with",
	"within", "without", "won't", "would", "yet", "you", "your", "yours", "yourself",
	"yourselves",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
