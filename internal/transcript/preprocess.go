package transcript

// Preprocess denormalizes a transcript into paragraphs that carry their own
// words and resolved speaker. Words keep their source order; paragraphs whose
// speaker_id is unknown get UnknownSpeaker. The input is not modified.
func Preprocess(t *Transcript) []EnrichedParagraph {
	if t == nil || len(t.Paragraphs) == 0 {
		return nil
	}

	byParagraph := make(map[string][]Word, len(t.Paragraphs))
	for _, w := range t.Words {
		byParagraph[w.ParagraphID] = append(byParagraph[w.ParagraphID], w)
	}

	speakers := make(map[string]Speaker, len(t.Speakers))
	for _, s := range t.Speakers {
		if _, dup := speakers[s.ID]; !dup {
			speakers[s.ID] = s
		}
	}

	out := make([]EnrichedParagraph, len(t.Paragraphs))
	for i, p := range t.Paragraphs {
		sp, ok := speakers[p.SpeakerID]
		if !ok {
			sp = UnknownSpeaker
		}
		// Two paragraphs sharing an id each get their own copy.
		words := append([]Word(nil), byParagraph[p.ID]...)
		out[i] = EnrichedParagraph{
			Paragraph: p,
			Index:     i,
			Words:     words,
			Speaker:   sp,
		}
	}
	return out
}
