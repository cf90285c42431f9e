package interval

// Piece is one maximal sub-interval of a span which lies either entirely inside
// or entirely outside the cursor's interval set.
type Piece struct {
	Start    PosType
	End      PosType
	InRegion bool
}

// SpanSplitter cuts a span into Pieces at interval boundaries.  The Pieces
// returned for one span are contiguous, increasing, and exactly cover it.
//
// Typical usage:
//   if ok, err := cursor.Intersects(begin, end); err == nil && ok {
//     splitter := cursor.Split(begin, end)
//     var piece interval.Piece
//     for splitter.Scan(&piece) {
//       // ...handle piece...
//     }
//   }
type SpanSplitter struct {
	ivs []Interval
	// idx is the splitter's own position in ivs.  It starts where the cursor
	// is, but the cursor itself is left alone, so a following span which
	// overlaps this one (e.g. a record inside a deletion) is still compared
	// against every interval it may touch.
	idx int
	// begin is the first position not yet covered by a returned Piece.
	begin PosType
	end   PosType
	done  bool
}

// Split returns a SpanSplitter over [begin, end], starting from the cursor's
// current interval.  c should already have been positioned with
// Intersects(begin, end).
func (c *Cursor) Split(begin, end PosType) SpanSplitter {
	s := SpanSplitter{begin: begin, end: end, done: end < begin}
	if !c.skip {
		s.ivs = c.ivs
		s.idx = c.idx
	}
	return s
}

// Scan stores the next Piece in *piece and returns true, or returns false if
// the span has been fully covered.
//
// A position equal to an interval's Start always belongs to that interval's
// in-region Piece, so single-base intervals are reported on their own and
// adjacent intervals never have an empty off-region Piece between them.
func (s *SpanSplitter) Scan(piece *Piece) bool {
	if s.done {
		return false
	}
	if s.idx < len(s.ivs) && s.begin > s.ivs[s.idx].End {
		s.idx++
	}
	if s.idx >= len(s.ivs) {
		// No intervals left; the remainder is off-region.
		*piece = Piece{Start: s.begin, End: s.end, InRegion: false}
		s.done = true
		return true
	}
	iv := s.ivs[s.idx]
	pieceEnd := s.end
	if s.begin < iv.Start {
		// Stop just before the interval's leading edge.
		if iv.Start-1 < pieceEnd {
			pieceEnd = iv.Start - 1
		}
	} else if iv.End < pieceEnd {
		// Stop at the interval's trailing edge.
		pieceEnd = iv.End
	}
	*piece = Piece{
		Start:    s.begin,
		End:      pieceEnd,
		InRegion: s.begin <= iv.End && pieceEnd >= iv.Start,
	}
	if pieceEnd >= s.end {
		s.done = true
	} else {
		s.begin = pieceEnd + 1
	}
	return true
}
