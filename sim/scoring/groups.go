package scoring

// facePartition is one way to spend some (possibly zero) of a single face's
// available dice on primitive groups: at most one of-a-kind group and, for
// faces 1 and 5, at most one singles group covering the kind group's
// leftover dice.
type facePartition struct {
	used   int
	points int
	tags   map[string]int
}

// kindBase returns the of-a-kind base score for a face: 1000 if face==1,
// else 100*face.
func kindBase(face int) int {
	if face == 1 {
		return 1000
	}
	return 100 * face
}

// facePartitions enumerates every way to allocate 0..count dice of the given
// face (1..6) to the primitive groups: single_1 (n=1..c, face 1 only) @
// 100n, single_5 (n=1..c, face 5 only) @ 50n, and kind_f_nok (n=3..c) @
// kindBase(f)*(n-2). A kind group and a singles group may combine on the
// same face as long as together they do not over-consume it.
func facePartitions(face, count int) []facePartition {
	out := []facePartition{{used: 0, points: 0, tags: map[string]int{}}}

	hasSingles := face == 1 || face == 5
	singleBase := 0
	singleTag := ""
	if face == 1 {
		singleBase, singleTag = 100, TagSingle1
	} else if face == 5 {
		singleBase, singleTag = 50, TagSingle5
	}

	kindOptions := []int{0}
	for n := 3; n <= count; n++ {
		kindOptions = append(kindOptions, n)
	}

	for _, kindN := range kindOptions {
		leftover := count - kindN
		singleOptions := []int{0}
		if hasSingles {
			for n := 1; n <= leftover; n++ {
				singleOptions = append(singleOptions, n)
			}
		}
		for _, singleN := range singleOptions {
			if kindN == 0 && singleN == 0 {
				continue
			}
			tags := map[string]int{}
			points := 0
			if kindN > 0 {
				tags[TagKind(face, kindN)] = 1
				points += kindBase(face) * (kindN - 2)
			}
			if singleN > 0 {
				tags[singleTag] = 1
				points += singleBase * singleN
			}
			out = append(out, facePartition{used: kindN + singleN, points: points, tags: tags})
		}
	}
	return out
}
