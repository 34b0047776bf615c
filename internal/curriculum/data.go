package curriculum

// K-12 math curriculum.
var mathConcepts = []Concept{
	{ID: "math-counting", Name: "Counting Numbers", Description: "Learn to count from 1 to 100", Prerequisites: []string{}, GradeLevel: 0},
	{ID: "math-addition-basic", Name: "Basic Addition", Description: "Adding single-digit numbers", Prerequisites: []string{"math-counting"}, GradeLevel: 1},
	{ID: "math-subtraction-basic", Name: "Basic Subtraction", Description: "Subtracting single-digit numbers", Prerequisites: []string{"math-counting"}, GradeLevel: 1},
	{ID: "math-place-value", Name: "Place Value", Description: "Understanding ones, tens, and hundreds", Prerequisites: []string{"math-counting"}, GradeLevel: 2},
	{ID: "math-multiplication", Name: "Multiplication", Description: "Multiplying numbers and times tables", Prerequisites: []string{"math-addition-basic"}, GradeLevel: 3},
	{ID: "math-division", Name: "Division", Description: "Dividing numbers and understanding remainders", Prerequisites: []string{"math-multiplication"}, GradeLevel: 3},
	{ID: "math-fractions-intro", Name: "Introduction to Fractions", Description: "Understanding parts of a whole", Prerequisites: []string{"math-division"}, GradeLevel: 4},
	{ID: "math-decimals", Name: "Decimals", Description: "Understanding decimal numbers and place value", Prerequisites: []string{"math-fractions-intro"}, GradeLevel: 5},
	{ID: "math-ratios", Name: "Ratios and Proportions", Description: "Understanding relationships between numbers", Prerequisites: []string{"math-fractions-intro"}, GradeLevel: 6},
	{ID: "math-integers", Name: "Integers and Operations", Description: "Working with positive and negative numbers", Prerequisites: []string{"math-decimals"}, GradeLevel: 6},
	{ID: "math-expressions", Name: "Algebraic Expressions", Description: "Using variables and simplifying expressions", Prerequisites: []string{"math-integers"}, GradeLevel: 7},
	{ID: "math-equations", Name: "Solving Equations", Description: "Finding unknown values in equations", Prerequisites: []string{"math-expressions"}, GradeLevel: 7},
	{ID: "math-linear-functions", Name: "Linear Functions", Description: "Understanding and graphing linear relationships", Prerequisites: []string{"math-equations"}, GradeLevel: 8},
	{ID: "math-quadratics", Name: "Quadratic Equations", Description: "Solving and graphing quadratic functions", Prerequisites: []string{"math-linear-functions"}, GradeLevel: 9},
	{ID: "math-geometry", Name: "Geometry Fundamentals", Description: "Shapes, angles, and proofs", Prerequisites: []string{"math-equations"}, GradeLevel: 10},
	{ID: "math-trigonometry", Name: "Trigonometry", Description: "Sine, cosine, tangent and their applications", Prerequisites: []string{"math-geometry"}, GradeLevel: 11},
	{ID: "math-precalculus", Name: "Pre-Calculus", Description: "Functions, limits, and preparation for calculus", Prerequisites: []string{"math-trigonometry", "math-quadratics"}, GradeLevel: 12},
}

// K-12 reading curriculum.
var readingConcepts = []Concept{
	{ID: "read-alphabet", Name: "Alphabet Recognition", Description: "Learning letters and their sounds", Prerequisites: []string{}, GradeLevel: 0},
	{ID: "read-phonics", Name: "Basic Phonics", Description: "Sounding out simple words", Prerequisites: []string{"read-alphabet"}, GradeLevel: 1},
	{ID: "read-sight-words", Name: "Sight Words", Description: "Recognizing common words by sight", Prerequisites: []string{"read-alphabet"}, GradeLevel: 1},
	{ID: "read-simple-sentences", Name: "Reading Simple Sentences", Description: "Understanding basic sentence structure", Prerequisites: []string{"read-phonics", "read-sight-words"}, GradeLevel: 2},
	{ID: "read-fluency", Name: "Reading Fluency", Description: "Reading smoothly and with expression", Prerequisites: []string{"read-simple-sentences"}, GradeLevel: 3},
	{ID: "read-comprehension-basic", Name: "Basic Comprehension", Description: "Understanding what you read", Prerequisites: []string{"read-fluency"}, GradeLevel: 3},
	{ID: "read-vocabulary", Name: "Vocabulary Building", Description: "Learning new words and their meanings", Prerequisites: []string{"read-comprehension-basic"}, GradeLevel: 4},
	{ID: "read-main-idea", Name: "Finding Main Ideas", Description: "Identifying the central message of a text", Prerequisites: []string{"read-comprehension-basic"}, GradeLevel: 5},
	{ID: "read-inference", Name: "Making Inferences", Description: "Reading between the lines", Prerequisites: []string{"read-main-idea"}, GradeLevel: 6},
	{ID: "read-text-structure", Name: "Text Structure", Description: "Understanding how texts are organized", Prerequisites: []string{"read-main-idea"}, GradeLevel: 6},
	{ID: "read-literary-elements", Name: "Literary Elements", Description: "Plot, character, setting, and theme", Prerequisites: []string{"read-inference"}, GradeLevel: 7},
	{ID: "read-analysis", Name: "Text Analysis", Description: "Analyzing author's purpose and techniques", Prerequisites: []string{"read-literary-elements"}, GradeLevel: 8},
	{ID: "read-rhetoric", Name: "Rhetorical Analysis", Description: "Understanding persuasion techniques", Prerequisites: []string{"read-analysis"}, GradeLevel: 9},
	{ID: "read-critical-reading", Name: "Critical Reading", Description: "Evaluating arguments and sources", Prerequisites: []string{"read-rhetoric"}, GradeLevel: 10},
	{ID: "read-literary-criticism", Name: "Literary Criticism", Description: "Different approaches to interpreting literature", Prerequisites: []string{"read-critical-reading"}, GradeLevel: 11},
	{ID: "read-synthesis", Name: "Synthesis and Research", Description: "Combining multiple sources to form conclusions", Prerequisites: []string{"read-literary-criticism"}, GradeLevel: 12},
}

// K-12 science curriculum.
var scienceConcepts = []Concept{
	{ID: "sci-senses", Name: "Five Senses", Description: "Exploring the world through our senses", Prerequisites: []string{}, GradeLevel: 0},
	{ID: "sci-living-nonliving", Name: "Living vs Non-Living", Description: "What makes something alive?", Prerequisites: []string{}, GradeLevel: 1},
	{ID: "sci-weather", Name: "Weather Basics", Description: "Understanding rain, sun, wind, and seasons", Prerequisites: []string{}, GradeLevel: 1},
	{ID: "sci-habitats", Name: "Animal Habitats", Description: "Where animals live and why", Prerequisites: []string{"sci-living-nonliving"}, GradeLevel: 2},
	{ID: "sci-life-cycles", Name: "Life Cycles", Description: "How living things grow and change", Prerequisites: []string{"sci-habitats"}, GradeLevel: 3},
	{ID: "sci-ecosystems", Name: "Ecosystems", Description: "How living things interact with their environment", Prerequisites: []string{"sci-life-cycles"}, GradeLevel: 4},
	{ID: "sci-matter", Name: "States of Matter", Description: "Solids, liquids, and gases", Prerequisites: []string{}, GradeLevel: 4},
	{ID: "sci-energy", Name: "Forms of Energy", Description: "Light, heat, sound, and electricity", Prerequisites: []string{"sci-matter"}, GradeLevel: 5},
	{ID: "sci-cells", Name: "Cell Biology", Description: "The building blocks of life", Prerequisites: []string{"sci-life-cycles"}, GradeLevel: 6},
	{ID: "sci-atoms", Name: "Atoms and Molecules", Description: "The building blocks of matter", Prerequisites: []string{"sci-matter"}, GradeLevel: 6},
	{ID: "sci-forces", Name: "Forces and Motion", Description: "How things move and why", Prerequisites: []string{"sci-energy"}, GradeLevel: 7},
	{ID: "sci-genetics", Name: "Basic Genetics", Description: "How traits are inherited", Prerequisites: []string{"sci-cells"}, GradeLevel: 8},
	{ID: "sci-chemical-reactions", Name: "Chemical Reactions", Description: "How substances change and interact", Prerequisites: []string{"sci-atoms"}, GradeLevel: 8},
	{ID: "sci-biology", Name: "Biology Foundations", Description: "Comprehensive study of living systems", Prerequisites: []string{"sci-genetics", "sci-cells"}, GradeLevel: 9},
	{ID: "sci-chemistry", Name: "Chemistry Foundations", Description: "Comprehensive study of matter and reactions", Prerequisites: []string{"sci-chemical-reactions"}, GradeLevel: 10},
	{ID: "sci-physics", Name: "Physics Foundations", Description: "Comprehensive study of energy and forces", Prerequisites: []string{"sci-forces"}, GradeLevel: 11},
	{ID: "sci-earth-science", Name: "Earth and Space Science", Description: "Geology, astronomy, and environmental science", Prerequisites: []string{"sci-chemistry", "sci-physics"}, GradeLevel: 12},
}

var subjects = []Subject{
	{
		ID:          "math",
		Name:        "Mathematics",
		Description: "Build strong mathematical foundations from counting to calculus",
		Concepts:    mathConcepts,
	},
	{
		ID:          "reading",
		Name:        "Reading & Language Arts",
		Description: "Develop reading comprehension and analytical skills",
		Concepts:    readingConcepts,
	},
	{
		ID:          "science",
		Name:        "Science",
		Description: "Explore the natural world through scientific inquiry",
		Concepts:    scienceConcepts,
	},
}
